package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"golang.org/x/time/rate"
)

const DefaultConcurrency = 1

// Dispatcher sends one call. *http.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call http.Call) http.Descriptor
}

// Options controls a run.
type Options struct {
	// Count is the number of sends. Must be positive.
	Count int
	// Concurrency bounds the sends in flight. Defaults to 1.
	Concurrency int
	// Rate caps sends per second. Zero means unpaced.
	Rate float64
	// OnResult, when set, is called after every send from the sending
	// goroutine.
	OnResult func(i int, d http.Descriptor)
}

// Runner executes profile runs.
type Runner struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

type RunnerOption func(*Runner)

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

func NewRunner(d Dispatcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		dispatcher: d,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sends call opts.Count times. Canceling ctx stops scheduling new sends;
// the report covers the sends that finished.
func (r *Runner) Run(ctx context.Context, call http.Call, opts Options) (*Report, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", opts.Count)
	}
	if opts.Rate < 0 {
		return nil, fmt.Errorf("rate must not be negative, got %g", opts.Rate)
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	sem := make(chan struct{}, concurrency)
	metrics := NewMetrics()

	r.logger.Info("profile started",
		slog.String("url", call.URL),
		slog.Int("count", opts.Count),
		slog.Int("concurrency", concurrency),
		slog.Float64("rate", opts.Rate))

	start := r.now()
	var wg sync.WaitGroup

schedule:
	for i := 0; i < opts.Count; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break schedule
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			began := r.now()
			desc := r.dispatcher.Dispatch(ctx, call)
			metrics.Record(r.now().Sub(began), desc)
			if opts.OnResult != nil {
				opts.OnResult(i, desc)
			}
		}(i)
	}

	wg.Wait()
	report := metrics.Report(r.now().Sub(start))

	r.logger.Info("profile finished",
		slog.Int64("total", report.Total),
		slog.Int64("failures", report.Failures),
		slog.Duration("p95", report.P95))

	return report, ctx.Err()
}
