package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTimerStop(t *testing.T) {
	timer := NewTimer("parse_record")
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Stop(), time.Duration(0))
}

func TestThroughputTracker(t *testing.T) {
	tracker := NewThroughputTracker("test", "images")
	tracker.Increment(3)
	time.Sleep(time.Millisecond)

	got := tracker.GetAndReset()
	assert.Greater(t, got, 0.0)
	assert.Equal(t, got,
		testutil.ToFloat64(IngestThroughput.WithLabelValues("test", "images")))

	// The counter resets, so an immediate second window reports nothing.
	time.Sleep(time.Millisecond)
	assert.Zero(t, tracker.GetAndReset())
}
