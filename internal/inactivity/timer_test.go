package inactivity

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRequestStartedFinished_CountNeverNegative(t *testing.T) {
	var fired int32
	tm := New(0, func() { atomic.AddInt32(&fired, 1) }, zap.NewNop())

	tm.RequestStarted()
	assert.EqualValues(t, 1, tm.Count())
	tm.RequestFinished()
	assert.EqualValues(t, 0, tm.Count())
	tm.RequestFinished() // unbalanced call at zero
	assert.EqualValues(t, 0, tm.Count())
}

func TestTimeout_FiresWhenIdle(t *testing.T) {
	done := make(chan struct{})
	tm := New(20*time.Millisecond, func() { close(done) }, zap.NewNop())
	defer tm.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout did not fire")
	}
}

func TestTimeout_ResetByActivity(t *testing.T) {
	var fired int32
	tm := New(30*time.Millisecond, func() { atomic.AddInt32(&fired, 1) }, zap.NewNop())
	defer tm.Stop()

	tm.RequestStarted()
	time.Sleep(50 * time.Millisecond) // timer paused while in-flight
	assert.EqualValues(t, 0, atomic.LoadInt32(&fired))
	tm.RequestFinished()

	time.Sleep(80 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestZeroDuration_NeverFires(t *testing.T) {
	var fired int32
	tm := New(0, func() { atomic.AddInt32(&fired, 1) }, zap.NewNop())
	defer tm.Stop()

	tm.RequestStarted()
	tm.RequestFinished()
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fired))
}
