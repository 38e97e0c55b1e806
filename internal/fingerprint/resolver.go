package fingerprint

import (
	"context"
	"fmt"

	"github.com/agenthands/platformid/internal/identity"
)

// scoreTolerance absorbs float rounding in MaxScore*Threshold so a score
// sitting exactly on the minimum is accepted.
const scoreTolerance = 1e-9

// Candidates is the read side of an identity store used during resolution.
type Candidates interface {
	// FindBySignal returns the record whose stored signal equals signal
	// byte for byte, or nil when there is none.
	FindBySignal(ctx context.Context, signal string) (*identity.Record, error)
	// List returns every record, oldest first.
	List(ctx context.Context) ([]identity.Record, error)
}

// Matching is the immutable scoring configuration shared by all resolutions.
type Matching struct {
	Weights   WeightTable
	Threshold float64
}

// NewMatching validates a weight table and threshold fraction.
func NewMatching(weights WeightTable, threshold float64) (Matching, error) {
	if threshold <= 0 || threshold > 1 {
		return Matching{}, fmt.Errorf("threshold %v must be in (0, 1]", threshold)
	}
	if weights.MaxScore() <= 0 {
		return Matching{}, fmt.Errorf("weight table has no positive weights")
	}
	return Matching{Weights: weights, Threshold: threshold}, nil
}

// MinimumScore is the lowest weighted score accepted as a match.
func (m Matching) MinimumScore() float64 {
	return float64(m.Weights.MaxScore()) * m.Threshold
}

// Accepts reports whether score clears the threshold.
func (m Matching) Accepts(score int) bool {
	return float64(score) >= m.MinimumScore()-scoreTolerance
}

type candidate struct {
	record  *identity.Record
	signals Signals
	score   int
}

// Resolver maps a raw signal string to a stored identity. It keeps no state
// between calls and is safe for concurrent use.
type Resolver struct {
	matching Matching
	observer Observer
}

// NewResolver builds a Resolver. A nil observer disables notifications.
func NewResolver(matching Matching, observer Observer) *Resolver {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Resolver{matching: matching, observer: observer}
}

// Matching returns the resolver's scoring configuration.
func (r *Resolver) Matching() Matching {
	return r.matching
}

// Resolve looks for an exact signal match first and falls back to a weighted
// scan of every stored record. Malformed signals end in NoMatch; store
// failures are returned wrapped.
func (r *Resolver) Resolve(ctx context.Context, store Candidates, raw string) (Outcome, error) {
	minimum := r.matching.MinimumScore()

	exact, err := store.FindBySignal(ctx, raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("exact lookup: %w", err)
	}
	if exact != nil {
		r.observer.OnExactMatch(ctx, exact)
		return Outcome{Kind: ExactMatch, Record: exact, MinimumScore: minimum}, nil
	}

	records, err := store.List(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list candidates: %w", err)
	}
	if len(records) == 0 {
		r.observer.OnNoCandidates(ctx)
		return Outcome{Kind: NoMatch, MinimumScore: minimum}, nil
	}

	query := Parse(raw)
	var best *candidate
	for i := range records {
		c := candidate{record: &records[i], signals: Parse(records[i].Signal)}
		c.score = Score(query, c.signals, r.matching.Weights)
		// Strictly greater: the first candidate at the top score wins ties.
		if best == nil || c.score > best.score {
			best = &c
		}
	}

	if r.matching.Accepts(best.score) {
		r.observer.OnWeightedMatch(ctx, best.record, best.score, minimum, len(records))
		return Outcome{Kind: WeightedMatch, Record: best.record, Score: best.score, MinimumScore: minimum}, nil
	}

	r.observer.OnNearMiss(ctx, best.record, best.score, minimum, len(records))
	return Outcome{
		Kind:         NoMatch,
		BestScore:    best.score,
		HasBestScore: true,
		MinimumScore: minimum,
	}, nil
}
