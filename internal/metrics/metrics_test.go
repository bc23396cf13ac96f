package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	c := NewCollector(registry)
	assert.Same(t, registry, c.Registry())

	assert.NotNil(t, NewCollector(nil).Registry())
}

func TestCollector_ObserveVerdict(t *testing.T) {
	t.Parallel()

	c := NewCollector(nil)
	c.ObserveVerdict("ok", time.Millisecond)
	c.ObserveVerdict("E001", 2*time.Millisecond)
	c.ObserveVerdict("E001", 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.validationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.validationsTotal.WithLabelValues("E001")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.validationDuration))
}

func TestCollector_ObserveLineLookup(t *testing.T) {
	t.Parallel()

	c := NewCollector(nil)
	c.ObserveLineLookup(true)
	c.ObserveLineLookup(false)
	c.ObserveLineLookup(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.lineLookupsTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lineLookupsTotal.WithLabelValues("missing")))
}

func TestCollector_ObserveRuleReload(t *testing.T) {
	t.Parallel()

	c := NewCollector(nil)
	c.ObserveRuleReload(nil)
	c.ObserveRuleReload(errors.New("bad file"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ruleReloadsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ruleReloadsTotal.WithLabelValues("error")))
}

func TestCollector_ObserveRequest(t *testing.T) {
	t.Parallel()

	c := NewCollector(nil)
	c.ObserveRequest("/api/yaml-check/validate", http.MethodPost, http.StatusOK, 5*time.Millisecond)
	c.ObserveRequest("/api/yaml-check/validate", http.MethodPost, http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("/api/yaml-check/validate", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("/api/yaml-check/validate", "POST", "400")))
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	c := NewCollector(nil)
	c.ObserveVerdict("E102", time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `yamlcheck_validations_total{code="E102"} 1`), string(body))
}
