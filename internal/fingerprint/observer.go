package fingerprint

import (
	"context"

	"github.com/agenthands/platformid/internal/identity"
)

// Observer is notified at the resolver's decision points. Implementations
// must not block for long and cannot influence the outcome.
type Observer interface {
	OnExactMatch(ctx context.Context, rec *identity.Record)
	OnWeightedMatch(ctx context.Context, rec *identity.Record, score int, minimum float64, candidates int)
	OnNearMiss(ctx context.Context, best *identity.Record, score int, minimum float64, candidates int)
	OnNoCandidates(ctx context.Context)
}

// Observers fans every notification out to each member.
type Observers []Observer

func (obs Observers) OnExactMatch(ctx context.Context, rec *identity.Record) {
	for _, o := range obs {
		o.OnExactMatch(ctx, rec)
	}
}

func (obs Observers) OnWeightedMatch(ctx context.Context, rec *identity.Record, score int, minimum float64, candidates int) {
	for _, o := range obs {
		o.OnWeightedMatch(ctx, rec, score, minimum, candidates)
	}
}

func (obs Observers) OnNearMiss(ctx context.Context, best *identity.Record, score int, minimum float64, candidates int) {
	for _, o := range obs {
		o.OnNearMiss(ctx, best, score, minimum, candidates)
	}
}

func (obs Observers) OnNoCandidates(ctx context.Context) {
	for _, o := range obs {
		o.OnNoCandidates(ctx)
	}
}

type nopObserver struct{}

func (nopObserver) OnExactMatch(context.Context, *identity.Record) {}
func (nopObserver) OnWeightedMatch(context.Context, *identity.Record, int, float64, int) {}
func (nopObserver) OnNearMiss(context.Context, *identity.Record, int, float64, int) {}
func (nopObserver) OnNoCandidates(context.Context) {}
