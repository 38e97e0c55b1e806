package fingerprint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/platformid/internal/identity"
)

type MockCandidates struct {
	Records   []identity.Record
	FindErr   error
	ListErr   error
	FindCalls int
	ListCalls int
}

func (m *MockCandidates) FindBySignal(ctx context.Context, signal string) (*identity.Record, error) {
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.Records {
		if m.Records[i].Signal == signal {
			rec := m.Records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *MockCandidates) List(ctx context.Context) ([]identity.Record, error) {
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]identity.Record, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

type RecordingObserver struct {
	Events []string
	Score  int
}

func (o *RecordingObserver) OnExactMatch(ctx context.Context, rec *identity.Record) {
	o.Events = append(o.Events, "exact:"+rec.ID)
}

func (o *RecordingObserver) OnWeightedMatch(ctx context.Context, rec *identity.Record, score int, minimum float64, candidates int) {
	o.Events = append(o.Events, "weighted:"+rec.ID)
	o.Score = score
}

func (o *RecordingObserver) OnNearMiss(ctx context.Context, best *identity.Record, score int, minimum float64, candidates int) {
	o.Events = append(o.Events, "near-miss:"+best.ID)
	o.Score = score
}

func (o *RecordingObserver) OnNoCandidates(ctx context.Context) {
	o.Events = append(o.Events, "empty")
}

func newTestResolver(t *testing.T, threshold float64, obs Observer) *Resolver {
	t.Helper()
	m, err := NewMatching(browserWeights(), threshold)
	require.NoError(t, err)
	return NewResolver(m, obs)
}

func TestResolve_ExactMatchShortCircuits(t *testing.T) {
	store := &MockCandidates{Records: []identity.Record{
		{ID: "a", Signal: "useragent=UA1&gpu=G1&language=en"},
		{ID: "b", Signal: "totally-opaque-blob"},
	}}
	obs := &RecordingObserver{}
	r := newTestResolver(t, 0.7, obs)

	// Weighted score of this blob is 0, the exact path must still win.
	out, err := r.Resolve(context.Background(), store, "totally-opaque-blob")
	require.NoError(t, err)

	assert.Equal(t, ExactMatch, out.Kind)
	assert.Equal(t, "b", out.Record.ID)
	assert.True(t, out.Matched())
	assert.Equal(t, 0, store.ListCalls)
	assert.Equal(t, []string{"exact:b"}, obs.Events)
}

func TestResolve_WeightedMatch(t *testing.T) {
	store := &MockCandidates{Records: []identity.Record{
		{ID: "a", Signal: "useragent=UA1&gpu=G1&language=fr"},
	}}
	obs := &RecordingObserver{}
	r := newTestResolver(t, 0.7, obs)

	out, err := r.Resolve(context.Background(), store, "useragent=UA1&gpu=G1&language=en")
	require.NoError(t, err)

	assert.Equal(t, WeightedMatch, out.Kind)
	assert.Equal(t, "a", out.Record.ID)
	assert.Equal(t, 20, out.Score)
	assert.InDelta(t, 16.1, out.MinimumScore, 1e-9)
	assert.Equal(t, []string{"weighted:a"}, obs.Events)
}

func TestResolve_BelowThresholdIsNoMatch(t *testing.T) {
	store := &MockCandidates{Records: []identity.Record{
		{ID: "a", Signal: "useragent=UA1&gpu=G2&language=fr"},
	}}
	obs := &RecordingObserver{}
	r := newTestResolver(t, 0.7, obs)

	out, err := r.Resolve(context.Background(), store, "useragent=UA1&gpu=G1&language=en")
	require.NoError(t, err)

	assert.Equal(t, NoMatch, out.Kind)
	assert.False(t, out.Matched())
	assert.Nil(t, out.Record)
	assert.True(t, out.HasBestScore)
	assert.Equal(t, 10, out.BestScore)
	assert.Equal(t, []string{"near-miss:a"}, obs.Events)
	assert.Equal(t, 10, obs.Score)
}

func TestResolve_EmptyStore(t *testing.T) {
	store := &MockCandidates{}
	obs := &RecordingObserver{}
	r := newTestResolver(t, 0.7, obs)

	out, err := r.Resolve(context.Background(), store, "useragent=UA1")
	require.NoError(t, err)

	assert.Equal(t, NoMatch, out.Kind)
	assert.False(t, out.HasBestScore)
	assert.Equal(t, []string{"empty"}, obs.Events)
}

func TestResolve_ThresholdBoundary(t *testing.T) {
	// max 10, threshold 0.7 -> minimum 7.
	weights := MustWeightTable(map[string]int{"useragent": 6, "language": 1, "gpu": 3})
	m, err := NewMatching(weights, 0.7)
	require.NoError(t, err)
	r := NewResolver(m, nil)

	onBoundary := &MockCandidates{Records: []identity.Record{{ID: "a", Signal: "useragent=UA1&language=en&gpu=X"}}}
	out, err := r.Resolve(context.Background(), onBoundary, "useragent=UA1&language=en&gpu=G1")
	require.NoError(t, err)
	assert.Equal(t, WeightedMatch, out.Kind)
	assert.Equal(t, 7, out.Score)

	oneBelow := &MockCandidates{Records: []identity.Record{{ID: "a", Signal: "useragent=UA1&language=fr&gpu=X"}}}
	out, err = r.Resolve(context.Background(), oneBelow, "useragent=UA1&language=en&gpu=G1")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, out.Kind)
	assert.Equal(t, 6, out.BestScore)
}

func TestResolve_TieBreakPicksFirst(t *testing.T) {
	store := &MockCandidates{Records: []identity.Record{
		{ID: "low", Signal: "useragent=UA9"},
		{ID: "first", Signal: "useragent=UA1&gpu=G1&language=xx"},
		{ID: "second", Signal: "useragent=UA1&gpu=G1&language=yy"},
	}}
	r := newTestResolver(t, 0.7, nil)

	for i := 0; i < 5; i++ {
		out, err := r.Resolve(context.Background(), store, "useragent=UA1&gpu=G1&language=en")
		require.NoError(t, err)
		assert.Equal(t, WeightedMatch, out.Kind)
		assert.Equal(t, "first", out.Record.ID)
	}
}

func TestResolve_PicksHighestScore(t *testing.T) {
	store := &MockCandidates{Records: []identity.Record{
		{ID: "ua-only", Signal: "useragent=UA1"},
		{ID: "ua-gpu", Signal: "useragent=UA1&gpu=G1"},
		{ID: "lang-only", Signal: "language=en"},
	}}
	r := newTestResolver(t, 0.7, nil)

	out, err := r.Resolve(context.Background(), store, "useragent=UA1&gpu=G1&language=en")
	require.NoError(t, err)
	assert.Equal(t, "ua-gpu", out.Record.ID)
	assert.Equal(t, 20, out.Score)
}

func TestResolve_MalformedSignalIsNoMatch(t *testing.T) {
	store := &MockCandidates{Records: []identity.Record{{ID: "a", Signal: "useragent=UA1&gpu=G1"}}}
	r := newTestResolver(t, 0.7, nil)

	for _, raw := range []string{"", "%%%", "&&&", "=x=y="} {
		out, err := r.Resolve(context.Background(), store, raw)
		require.NoError(t, err, raw)
		assert.Equal(t, NoMatch, out.Kind, raw)
	}
}

func TestResolve_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	r := newTestResolver(t, 0.7, nil)

	_, err := r.Resolve(context.Background(), &MockCandidates{FindErr: boom}, "x")
	assert.ErrorIs(t, err, boom)

	_, err = r.Resolve(context.Background(), &MockCandidates{ListErr: boom}, "x")
	assert.ErrorIs(t, err, boom)
}

func TestNewMatching_Validation(t *testing.T) {
	w := browserWeights()
	for _, th := range []float64{0, -0.1, 1.01} {
		_, err := NewMatching(w, th)
		assert.Error(t, err, th)
	}
	_, err := NewMatching(w, 1)
	assert.NoError(t, err)

	_, err = NewMatching(MustWeightTable(map[string]int{"a": 0}), 0.5)
	assert.Error(t, err)
}

func TestObserversFanOut(t *testing.T) {
	a, b := &RecordingObserver{}, &RecordingObserver{}
	obs := Observers{a, b}
	rec := &identity.Record{ID: "x"}

	obs.OnExactMatch(context.Background(), rec)
	obs.OnNoCandidates(context.Background())

	assert.Equal(t, []string{"exact:x", "empty"}, a.Events)
	assert.Equal(t, a.Events, b.Events)
}
