package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTicker_FireDelivers(t *testing.T) {
	mt := NewManualTicker().Reset(50 * time.Millisecond)

	received := make(chan time.Time, 1)
	go func() {
		received <- <-mt.C()
	}()

	require.True(t, mt.Fire(time.Second))
	got := <-received
	assert.Equal(t, time.Unix(0, 0).UTC().Add(50*time.Millisecond), got)
	assert.Equal(t, 1, mt.Fired())
}

func TestManualTicker_FireTimesOutWithoutReceiver(t *testing.T) {
	mt := NewManualTicker().Reset(time.Second)

	assert.False(t, mt.Fire(10*time.Millisecond))
	assert.Equal(t, 0, mt.Fired())
}

func TestManualTicker_StopPreventsFire(t *testing.T) {
	mt := NewManualTicker().Reset(time.Second)
	mt.Stop()

	assert.True(t, mt.Stopped())
	assert.False(t, mt.Fire(time.Second))

	mt.Reset(time.Second)
	assert.False(t, mt.Stopped())
}

func TestManualTicker_RecordsInterval(t *testing.T) {
	mt := NewManualTicker()
	mt.Reset(41666666 * time.Nanosecond)
	assert.Equal(t, 41666666*time.Nanosecond, mt.Interval())
}
