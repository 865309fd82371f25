package console

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_Generations(t *testing.T) {
	p := NewPoller(0)
	if p.Interval != PollInterval {
		t.Fatalf("interval = %v, want %v", p.Interval, PollInterval)
	}
	if p.Accept(0) {
		t.Fatalf("stopped poller accepted a tick")
	}

	g1 := p.Start()
	if !p.Accept(g1) {
		t.Fatalf("live generation rejected")
	}

	p.Stop()
	if p.Accept(g1) || p.Running() {
		t.Fatalf("tick accepted after stop")
	}

	g2 := p.Start()
	if p.Accept(g1) {
		t.Fatalf("tick from previous mount accepted")
	}
	if !p.Accept(g2) {
		t.Fatalf("new generation rejected")
	}
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		Every(ctx, 5*time.Millisecond, func(context.Context) {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not return after cancel")
	}
	n := calls.Load()
	if n < 3 {
		t.Fatalf("calls = %d, want >= 3", n)
	}
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != n {
		t.Fatalf("fn called after Every returned")
	}
}

func TestScope_ReleasesOnceInReverse(t *testing.T) {
	s := NewScope(context.Background())
	var order []int
	s.Defer(func() { order = append(order, 1) })
	s.Defer(func() { order = append(order, 2) })

	if !s.Alive() {
		t.Fatalf("new scope not alive")
	}
	s.Close()
	s.Close()

	if !reflect.DeepEqual(order, []int{2, 1}) {
		t.Fatalf("release order = %v, want [2 1]", order)
	}
	if s.Alive() || s.Context().Err() == nil {
		t.Fatalf("closed scope still alive")
	}

	// Releases added after close run immediately.
	s.Defer(func() { order = append(order, 3) })
	if !reflect.DeepEqual(order, []int{2, 1, 3}) {
		t.Fatalf("order = %v, want [2 1 3]", order)
	}
}
