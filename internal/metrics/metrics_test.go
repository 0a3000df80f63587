package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
)

func TestMetrics_RecordsPipelineEvents(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	m.SourceFetched("CM7", 12, 300*time.Millisecond)
	m.SourceFailed("PortalHolanda", "upstream_failure")
	m.SourceFailed("PortalHolanda", "")
	m.SourceSkipped("PortalHolanda")
	m.CycleCompleted(12, 3, time.Second)
	m.CycleFailed()
	m.NotificationSent("log")
	m.NotificationFailed("telegram")

	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceFetchTotal.WithLabelValues("CM7", "ok")), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.SourceArticlesTotal.WithLabelValues("CM7")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.SourceFetchTotal.WithLabelValues("PortalHolanda", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceErrorsTotal.WithLabelValues("PortalHolanda", "unknown")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceSkippedTotal.WithLabelValues("PortalHolanda")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.ArticlesInsertedTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("telegram", "failed")), 0)
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.CycleCompleted(1, 1, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	assert.Panics(t, func() { metrics.New(reg) }, "duplicate registration must panic")
}
