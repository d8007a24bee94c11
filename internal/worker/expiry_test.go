package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type expireStub struct {
	calls   atomic.Int32
	expired int
	err     error
}

func (s *expireStub) Execute(context.Context) (int, error) {
	s.calls.Add(1)
	return s.expired, s.err
}

func TestExpiryWorker_SweepsImmediatelyOnStart(t *testing.T) {
	stub := &expireStub{expired: 3}
	w := NewExpiryWorker(stub, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for stub.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never swept")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestExpiryWorker_SweepsOnEveryTick(t *testing.T) {
	stub := &expireStub{}
	w := NewExpiryWorker(stub, 20*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if got := stub.calls.Load(); got < 3 {
		t.Fatalf("expected at least 3 sweeps, got %d", got)
	}
}

func TestExpiryWorker_SurvivesSweepErrors(t *testing.T) {
	stub := &expireStub{err: errors.New("database gone")}
	w := NewExpiryWorker(stub, 20*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if got := stub.calls.Load(); got < 2 {
		t.Fatalf("worker should keep sweeping after an error, got %d sweeps", got)
	}
}

func TestNewExpiryWorker_DefaultsPeriod(t *testing.T) {
	w := NewExpiryWorker(&expireStub{}, 0, nil)
	if w.period != 6*time.Hour {
		t.Fatalf("expected 6h default period, got %s", w.period)
	}
}
