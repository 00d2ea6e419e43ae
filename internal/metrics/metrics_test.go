package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveBuildDuration(250 * time.Millisecond)
	r.IncBuildOutcome(OutcomeSuccess)
	r.IncBuildOutcome(OutcomePartial)
	r.AddPageResults(PageRendered, 3)
	r.AddPageResults(PageFailed, 1)
	r.AddPageResults(PageSkipped, 0)
	r.SetIndexedFiles(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildOutcome.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.buildOutcome.WithLabelValues("partial")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.pageResults.WithLabelValues("rendered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pageResults.WithLabelValues("failed")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.indexedFiles))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(OutcomeFatal)
	r.AddPageResults(PageDeleted, 2)
	r.SetIndexedFiles(1)
}
