package console

import (
	"context"
	"time"
)

// PollInterval is the refresh period of a mounted list view.
const PollInterval = 500 * time.Millisecond

// Poller owns the timing policy of a list view's refresh loop. Each Start
// opens a new generation; ticks carry the generation they were scheduled in
// and are dropped once the view has stopped or restarted.
type Poller struct {
	Interval time.Duration

	gen     uint64
	running bool
}

func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = PollInterval
	}
	return &Poller{Interval: interval}
}

func (p *Poller) Start() uint64 {
	p.gen++
	p.running = true
	return p.gen
}

func (p *Poller) Stop() {
	p.running = false
	p.gen++
}

func (p *Poller) Running() bool { return p.running }

// Accept reports whether a tick from gen should trigger a refresh and be re-armed.
func (p *Poller) Accept(gen uint64) bool {
	return p.running && gen == p.gen
}

// Every calls fn immediately and then once per interval until ctx is done.
// fn runs on the calling goroutine, one call at a time.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		interval = PollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	fn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
		}
	}
}
