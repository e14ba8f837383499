package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, RepositoryOperationsTotal)
	assert.NotNil(t, IntegrityWarningsTotal)
}

func TestRecordRepositoryOp(t *testing.T) {
	InitMetrics()
	ok := RepositoryOperationsTotal.With(prometheus.Labels{"kind": "album", "op": "create", "result": "success"})
	failed := RepositoryOperationsTotal.With(prometheus.Labels{"kind": "album", "op": "create", "result": "failure"})
	before, beforeFailed := counterValue(t, ok), counterValue(t, failed)

	RecordRepositoryOp("album", "create", nil)
	RecordRepositoryOp("album", "create", errors.New("dup"))

	assert.Equal(t, before+1, counterValue(t, ok))
	assert.Equal(t, beforeFailed+1, counterValue(t, failed))
}

func TestRecordIntegrityWarning(t *testing.T) {
	InitMetrics()
	c := IntegrityWarningsTotal.With(prometheus.Labels{"reason": "target_missing"})
	before := counterValue(t, c)

	RecordIntegrityWarning("target_missing")

	assert.Equal(t, before+1, counterValue(t, c))
}

func TestRecordManifest(t *testing.T) {
	InitMetrics()
	cached := ManifestRequestsTotal.With(prometheus.Labels{"source": "cache"})
	before := counterValue(t, cached)

	RecordManifest("cache", 0)

	assert.Equal(t, before+1, counterValue(t, cached))
}
