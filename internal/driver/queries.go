package driver

var IndexQueries = []string{
	"CREATE INDEX ON :PlatformUser(id);",
	"CREATE INDEX ON :PlatformUser(signal);",
	"CREATE INDEX ON :PlatformUser(seq);",
	"CREATE INDEX ON :LinkedRecord(id);",
}

const (
	// seq is kept above every stored seq; List and FindBySignal order by it.
	CreatePlatformUserQuery = `
		OPTIONAL MATCH (p:PlatformUser)
		WITH coalesce(max(p.seq), 0) AS top
		CREATE (u:PlatformUser {
			id: $id,
			username: $username,
			signal: $signal,
			display_payload: $display_payload,
			joined_at: $joined_at,
			created_at: $created_at,
			seq: CASE WHEN $seq > top THEN $seq ELSE top + 1 END
		})
		RETURN u.id AS id, u.username AS username, u.signal AS signal,
			u.display_payload AS display_payload, u.joined_at AS joined_at,
			u.created_at AS created_at
	`

	FindPlatformUserBySignalQuery = `
		MATCH (u:PlatformUser {signal: $signal})
		RETURN u.id AS id, u.username AS username, u.signal AS signal,
			u.display_payload AS display_payload, u.joined_at AS joined_at,
			u.created_at AS created_at
		ORDER BY u.seq ASC
		LIMIT 1
	`

	ListPlatformUsersQuery = `
		MATCH (u:PlatformUser)
		RETURN u.id AS id, u.username AS username, u.signal AS signal,
			u.display_payload AS display_payload, u.joined_at AS joined_at,
			u.created_at AS created_at
		ORDER BY u.seq ASC, u.id ASC
	`

	UpdateDisplayPayloadQuery = `
		MATCH (u:PlatformUser {id: $id})
		SET u.display_payload = $display_payload
		RETURN u.id AS id, u.username AS username, u.signal AS signal,
			u.display_payload AS display_payload, u.joined_at AS joined_at,
			u.created_at AS created_at
	`

	CreateLinkedRecordQuery = `
		MATCH (u:PlatformUser {id: $owner_id})
		CREATE (r:LinkedRecord {id: $id, owner_id: $owner_id, payload: $payload, created_at: $created_at})
		CREATE (r)-[:BELONGS_TO]->(u)
		RETURN r.id AS id, r.owner_id AS owner_id, r.payload AS payload, r.created_at AS created_at
	`
)
