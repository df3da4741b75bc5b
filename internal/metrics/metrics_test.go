package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/offline"
)

var _ offline.Metrics = Recorder{}

func TestRecorderCounts(t *testing.T) {
	var r Recorder

	before := testutil.ToFloat64(hits)
	r.Hit()
	r.Hit()
	assert.Equal(t, before+2, testutil.ToFloat64(hits))

	beforeExpired := testutil.ToFloat64(misses.WithLabelValues(offline.MissExpired))
	r.Miss(offline.MissExpired)
	assert.Equal(t, beforeExpired+1, testutil.ToFloat64(misses.WithLabelValues(offline.MissExpired)))

	beforeCleared := testutil.ToFloat64(cleared)
	r.Cleared(7)
	assert.Equal(t, beforeCleared+7, testutil.ToFloat64(cleared))
}

func TestRecorderWrites(t *testing.T) {
	var r Recorder
	w, we, c := testutil.ToFloat64(writes), testutil.ToFloat64(writeErrors), testutil.ToFloat64(cleanups)
	r.Write()
	r.WriteError()
	r.Cleanup()
	assert.Equal(t, w+1, testutil.ToFloat64(writes))
	assert.Equal(t, we+1, testutil.ToFloat64(writeErrors))
	assert.Equal(t, c+1, testutil.ToFloat64(cleanups))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
