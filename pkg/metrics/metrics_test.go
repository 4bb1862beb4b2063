package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRun(t *testing.T) {
	success := testutil.ToFloat64(Runs.WithLabelValues(OutcomeSuccess))
	failure := testutil.ToFloat64(Runs.WithLabelValues(OutcomeFailure))

	RecordRun(nil)
	RecordRun(errors.New("load failed"))
	RecordRun(nil)

	assert.Equal(t, success+2, testutil.ToFloat64(Runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, failure+1, testutil.ToFloat64(Runs.WithLabelValues(OutcomeFailure)))
}

func TestRecordGraphReplacesTypes(t *testing.T) {
	RecordGraph(map[string]int{"disease": 3, "phenotype": 5}, 7)
	RecordGraph(map[string]int{"phenotype": 2}, 1)

	assert.Equal(t, 1, testutil.CollectAndCount(GraphNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(GraphNodes.WithLabelValues("phenotype")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GraphEdges))
}

func TestObservePhase(t *testing.T) {
	ObservePhase("aggregate", time.Now().Add(-time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(PhaseDuration, "ic_analyzer_phase_duration_seconds"))
}
