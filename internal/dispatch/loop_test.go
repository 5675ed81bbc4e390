package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoopExecutor_RunsSubmittedWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(8, zap.NewNop())
	go l.Run(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	var ran bool
	l.Submit(func() {
		ran = true
		wg.Done()
	})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submitted work never ran")
	}
	assert.True(t, ran)
}

func TestLoopExecutor_RecoversPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(8, zap.NewNop())
	go l.Run(ctx)

	l.Submit(func() { panic("boom") })

	var wg sync.WaitGroup
	wg.Add(1)
	var ranAfterPanic bool
	l.Submit(func() {
		ranAfterPanic = true
		wg.Done()
	})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executor stalled after panic")
	}
	assert.True(t, ranAfterPanic)
}

func TestSyncExecutor_RunsInline(t *testing.T) {
	var ran bool
	SyncExecutor{}.Submit(func() { ran = true })
	assert.True(t, ran)
}
