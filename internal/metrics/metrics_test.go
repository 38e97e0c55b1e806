package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/platformid/internal/identity"
)

func TestObserver_CountsOutcomes(t *testing.T) {
	ctx := context.Background()
	rec := &identity.Record{ID: "u1"}
	obs := Observer{}

	before := map[string]float64{}
	for _, o := range []string{OutcomeExact, OutcomeWeighted, OutcomeNearMiss, OutcomeEmpty} {
		before[o] = testutil.ToFloat64(resolverOutcomesTotal.WithLabelValues(o))
	}

	obs.OnExactMatch(ctx, rec)
	obs.OnWeightedMatch(ctx, rec, 20, 16.1, 2)
	obs.OnNearMiss(ctx, rec, 10, 16.1, 2)
	obs.OnNearMiss(ctx, rec, 12, 16.1, 2)
	obs.OnNoCandidates(ctx)

	assert.Equal(t, before[OutcomeExact]+1, testutil.ToFloat64(resolverOutcomesTotal.WithLabelValues(OutcomeExact)))
	assert.Equal(t, before[OutcomeWeighted]+1, testutil.ToFloat64(resolverOutcomesTotal.WithLabelValues(OutcomeWeighted)))
	assert.Equal(t, before[OutcomeNearMiss]+2, testutil.ToFloat64(resolverOutcomesTotal.WithLabelValues(OutcomeNearMiss)))
	assert.Equal(t, before[OutcomeEmpty]+1, testutil.ToFloat64(resolverOutcomesTotal.WithLabelValues(OutcomeEmpty)))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RecordRequest("/healthz", "200")

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "platformid_http_requests_total")
}
