package fingerprint

import "github.com/agenthands/platformid/internal/identity"

// OutcomeKind tags how a resolution ended.
type OutcomeKind int

const (
	NoMatch OutcomeKind = iota
	ExactMatch
	WeightedMatch
)

func (k OutcomeKind) String() string {
	switch k {
	case ExactMatch:
		return "exact"
	case WeightedMatch:
		return "weighted"
	default:
		return "none"
	}
}

// Outcome is the result of Resolve.
//
// Record is set for ExactMatch and WeightedMatch. Score is the weighted score
// of the accepted candidate (0 for ExactMatch). For NoMatch, BestScore holds
// the highest score seen when at least one candidate was scored.
type Outcome struct {
	Kind         OutcomeKind
	Record       *identity.Record
	Score        int
	BestScore    int
	HasBestScore bool
	MinimumScore float64
}

// Matched reports whether the outcome resolved to a record.
func (o Outcome) Matched() bool {
	return o.Kind == ExactMatch || o.Kind == WeightedMatch
}
