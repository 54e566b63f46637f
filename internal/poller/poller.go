// Package poller runs recurring fetches with last-known-good semantics.
//
// A Poller invokes its fetch immediately on Start and then once per interval.
// Invocations are not mutually exclusive: a slow fetch may still be in flight
// when the next tick issues another. Results are delivered in completion
// order, so consumers get last-writer-wins by completion, not by issue.
// Once Stop returns, no further Result is delivered.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/atomic"

	"github.com/autoops/sentinel-dash/internal/apperr"
	"github.com/autoops/sentinel-dash/internal/metrics"
)

// FetchFunc performs one request. It should honour ctx.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Deliver receives results. ctx is done once the poller is stopped, so a
// blocking send should select on it.
type Deliver[T any] func(ctx context.Context, r Result[T])

// CancelFunc stops a schedule. It is safe to call more than once.
type CancelFunc func()

// Result is the outcome of one poll tick.
type Result[T any] struct {
	Name string
	Seq  uint64 // issue order, starting at 1

	// Value is the fresh payload on success. On failure it is the
	// last-known-good payload (if HasValue) so the view can keep showing it.
	Value    T
	HasValue bool
	Err      error
	Stale    bool // true when this tick failed

	IssuedAt    time.Time
	CompletedAt time.Time
}

// Options configures a Poller. Zero values get sensible defaults.
type Options struct {
	Name      string
	Interval  time.Duration
	Timeout   time.Duration // per attempt; 0 disables
	Retries   int           // extra attempts after a failed one
	RetryWait time.Duration
	Clock     clock.Clock
	Logger    *slog.Logger
}

const (
	DefaultInterval  = 5 * time.Second
	DefaultTimeout   = 10 * time.Second
	DefaultRetryWait = 250 * time.Millisecond
)

type Poller[T any] struct {
	opts    Options
	fetch   FetchFunc[T]
	deliver Deliver[T]

	alive   *atomic.Bool
	started *atomic.Bool
	seq     *atomic.Uint64

	// mu serialises completions so deliveries happen one at a time,
	// in completion order, and never after Stop.
	mu      sync.Mutex
	last    T
	hasLast bool

	lifeMu   sync.Mutex
	stopped  bool
	ctx      context.Context // lifetime; done after Stop
	cancel   context.CancelFunc
	fetchCtx context.Context
	ticker   *clock.Ticker
	stopOnce sync.Once
}

// New builds a Poller without starting it.
func New[T any](opts Options, fetch FetchFunc[T], deliver Deliver[T]) *Poller[T] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = "poller"
	}
	return &Poller[T]{
		opts:    opts,
		fetch:   fetch,
		deliver: deliver,
		alive:   atomic.NewBool(false),
		started: atomic.NewBool(false),
		seq:     atomic.NewUint64(0),
	}
}

// Schedule starts a Poller and returns its cancel function.
func Schedule[T any](ctx context.Context, opts Options, fetch FetchFunc[T], deliver Deliver[T]) CancelFunc {
	p := New(opts, fetch, deliver)
	p.Start(ctx)
	return p.Stop
}

// Start issues the first fetch immediately and then one per interval until
// Stop is called or ctx is done. Calling Start twice, or after Stop, is a no-op.
//
// In-flight fetches are not aborted by Stop; they run against ctx and their
// completions are discarded.
func (p *Poller[T]) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.lifeMu.Lock()
	if p.stopped {
		p.lifeMu.Unlock()
		return
	}
	p.fetchCtx = ctx
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.ticker = p.opts.Clock.Ticker(p.opts.Interval)
	p.alive.Store(true)
	p.lifeMu.Unlock()

	go p.loop()
}

func (p *Poller[T]) loop() {
	defer p.ticker.Stop()
	p.invoke()
	for {
		select {
		case <-p.ctx.Done():
			p.Stop()
			return
		case <-p.ticker.C:
			if !p.alive.Load() {
				return
			}
			p.invoke()
		}
	}
}

func (p *Poller[T]) invoke() {
	seq := p.seq.Inc()
	issued := p.opts.Clock.Now()
	go func() {
		v, err := p.attempt()
		p.complete(seq, issued, v, err)
	}()
}

// attempt runs fetch under the per-attempt timeout, retrying up to
// opts.Retries times. Decode failures are not retried.
func (p *Poller[T]) attempt() (T, error) {
	op := func() (T, error) {
		ctx := p.fetchCtx
		if p.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
			defer cancel()
		}
		v, err := p.safeFetch(ctx)
		if err != nil && apperr.KindOf(err) == apperr.KindDecode {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.opts.RetryWait), uint64(p.opts.Retries)),
		p.fetchCtx,
	)
	return backoff.RetryWithData(op, policy)
}

func (p *Poller[T]) safeFetch(ctx context.Context) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: fetch panicked: %v", p.opts.Name, r)
		}
	}()
	return p.fetch(ctx)
}

func (p *Poller[T]) complete(seq uint64, issued time.Time, v T, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alive.Load() {
		return
	}

	now := p.opts.Clock.Now()
	r := Result[T]{Name: p.opts.Name, Seq: seq, IssuedAt: issued, CompletedAt: now}
	if err != nil {
		r.Err = err
		r.Stale = true
		r.Value, r.HasValue = p.last, p.hasLast
		metrics.ObservePoll(p.opts.Name, now.Sub(issued), metrics.OutcomeError)
		p.opts.Logger.Warn("poll failed, keeping last known good",
			"poller", p.opts.Name, "seq", seq, "has_value", p.hasLast, "err", err)
	} else {
		p.last, p.hasLast = v, true
		r.Value, r.HasValue = v, true
		metrics.ObservePoll(p.opts.Name, now.Sub(issued), metrics.OutcomeSuccess)
		p.opts.Logger.Debug("poll ok", "poller", p.opts.Name, "seq", seq)
	}

	if p.deliver != nil {
		p.deliver(p.ctx, r)
	}
}

// Stop cancels the schedule. After it returns no Result is delivered.
func (p *Poller[T]) Stop() {
	p.stopOnce.Do(func() {
		p.started.Store(true)
		p.lifeMu.Lock()
		p.stopped = true
		cancel := p.cancel
		p.lifeMu.Unlock()
		if cancel != nil {
			cancel()
		}
		p.mu.Lock()
		p.alive.Store(false)
		p.mu.Unlock()
	})
}

// Alive reports whether the poller is scheduled and not stopped.
func (p *Poller[T]) Alive() bool {
	return p.alive.Load()
}

// Latest returns the last-known-good payload.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasLast
}
