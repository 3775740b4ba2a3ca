package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/compose"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/google/uuid"
)

// Transport issues one composed request. *Client is the production
// implementation.
type Transport interface {
	Issue(ctx context.Context, req *Request) (*RawResponse, error)
}

// Call is a fully composed request ready for dispatch.
type Call struct {
	Method  draft.Method
	URL     string
	Headers map[string]string
	Body    string
	HasBody bool
}

// CallFromDraft composes the URL and header set of d.
func CallFromDraft(d draft.Draft, match compose.Match) Call {
	hasBody := d.HasBody()
	return Call{
		Method:  d.Method,
		URL:     compose.Compose(d.URL, d.QueryParams),
		Headers: compose.AssembleWith(d.Headers, d.Method, hasBody, match),
		Body:    d.Body,
		HasBody: hasBody,
	}
}

// Dispatcher issues calls, times them and classifies the outcome. It
// holds no per-call state, so concurrent Dispatch calls are allowed.
type Dispatcher struct {
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(transport Transport, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends call and returns its descriptor. The body is attached only
// when the call has one and the method allows it. Elapsed time covers the
// round trip, the body read and decoding.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) Descriptor {
	logger := d.logger.With(
		slog.String("dispatch_id", uuid.NewString()),
		slog.String("method", string(call.Method)),
		slog.String("url", call.URL),
	)

	req := &Request{
		Method:  string(call.Method),
		URL:     call.URL,
		Headers: call.Headers,
	}
	if call.HasBody && call.Method.AllowsBody() {
		req.Body = call.Body
	}

	logger.Debug("dispatching request",
		slog.Int("headers", len(req.Headers)),
		slog.Int("body_bytes", len(req.Body)))

	start := d.now()
	raw, err := d.transport.Issue(ctx, req)
	if err != nil {
		return d.fail(logger, err)
	}

	desc, err := Normalize(raw, 0)
	if err != nil {
		return d.fail(logger, err)
	}
	desc.Time = d.now().Sub(start).Milliseconds()

	logger.Info("request completed",
		slog.Int("status", desc.Status),
		slog.Int64("time_ms", desc.Time),
		slog.Int("size", desc.Size))
	return desc
}

func (d *Dispatcher) fail(logger *slog.Logger, err error) Descriptor {
	kind := KindTransport
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		kind = KindDecode
	}
	logger.Warn("request failed",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()))
	return Failure(kind, err.Error())
}
