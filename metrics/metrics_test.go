package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	require.NotNil(t, cacheLookupsTotal)
	require.NotNil(t, serviceCallsTotal)
	require.NotNil(t, serviceCallDuration)
	require.NotNil(t, itemsTotal)
	require.NotNil(t, tokensTotal)
	require.NotNil(t, documentsTotal)
	require.NotNil(t, activeWorkers)
}

func TestObserveLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues(LookupFuzzy))
	ObserveLookup(LookupFuzzy)
	ObserveLookup(LookupFuzzy)
	assert.Equal(t, before+2, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues(LookupFuzzy)))
}

func TestObserveServiceCall(t *testing.T) {
	ObserveServiceCall("batch", nil, time.Second)
	okBefore := testutil.ToFloat64(serviceCallsTotal.WithLabelValues("batch", "ok"))
	errBefore := testutil.ToFloat64(serviceCallsTotal.WithLabelValues("batch", "error"))

	ObserveServiceCall("batch", nil, 2*time.Second)
	ObserveServiceCall("batch", errors.New("down"), time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(serviceCallsTotal.WithLabelValues("batch", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(serviceCallsTotal.WithLabelValues("batch", "error")))
}

func TestObserveTokens(t *testing.T) {
	Init()
	inBefore := testutil.ToFloat64(tokensTotal.WithLabelValues("input"))
	outBefore := testutil.ToFloat64(tokensTotal.WithLabelValues("output"))

	ObserveTokens(120, 30)
	ObserveTokens(0, 0)

	assert.Equal(t, inBefore+120, testutil.ToFloat64(tokensTotal.WithLabelValues("input")))
	assert.Equal(t, outBefore+30, testutil.ToFloat64(tokensTotal.WithLabelValues("output")))
}

func TestObserveDocumentAndWorkers(t *testing.T) {
	Init()
	errBefore := testutil.ToFloat64(documentsTotal.WithLabelValues("error"))
	ObserveDocument(errors.New("failed"))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(documentsTotal.WithLabelValues("error")))

	gauge := testutil.ToFloat64(activeWorkers)
	IncActiveWorkers()
	assert.Equal(t, gauge+1, testutil.ToFloat64(activeWorkers))
	DecActiveWorkers()
	assert.Equal(t, gauge, testutil.ToFloat64(activeWorkers))

	ObserveItem(ItemMalformed)
	assert.GreaterOrEqual(t, testutil.ToFloat64(itemsTotal.WithLabelValues(ItemMalformed)), 1.0)
}

func TestHandler(t *testing.T) {
	ObserveLookup(LookupMiss)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "themeconv_cache_lookups_total")
}
