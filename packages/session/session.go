package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/compose"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/store"
)

// Dispatcher sends a composed call. *http.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call http.Call) http.Descriptor
}

// Session ties a live draft to a dispatcher, a result cell and a store.
type Session struct {
	mu         sync.Mutex
	draft      draft.Draft
	store      store.Store
	dispatcher Dispatcher
	cell       Cell
	match      compose.Match
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Session)

// WithContentTypeMatch sets how an existing Content-Type header is detected.
func WithContentTypeMatch(m compose.Match) Option {
	return func(s *Session) {
		s.match = m
	}
}

// WithDraft replaces the initial blank draft.
func WithDraft(d draft.Draft) Option {
	return func(s *Session) {
		s.draft = d.Clone()
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a session editing a blank GET draft.
func New(st store.Store, dispatcher Dispatcher, opts ...Option) *Session {
	s := &Session{
		draft:      draft.New(),
		store:      st,
		dispatcher: dispatcher,
		match:      compose.MatchExact,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draft returns a copy of the live draft.
func (s *Session) Draft() draft.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// SetDraft replaces the live draft with a copy of d.
func (s *Session) SetDraft(d draft.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d.Clone()
}

// Edit runs fn against the live draft under the session lock.
func (s *Session) Edit(fn func(d *draft.Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.draft)
}

// Send dispatches a snapshot of the live draft. It returns the descriptor
// and whether it became the live result.
func (s *Session) Send(ctx context.Context) (http.Descriptor, bool) {
	call, gen := s.begin()
	desc := s.dispatcher.Dispatch(ctx, call)
	applied := s.cell.Apply(gen, desc)
	if !applied {
		s.logger.Debug("discarding stale response", slog.Uint64("generation", gen))
	}
	return desc, applied
}

// SendAsync is Send on a goroutine. The snapshot is taken before it
// returns, so later edits do not affect this dispatch. The channel yields
// the descriptor once and is then closed.
func (s *Session) SendAsync(ctx context.Context) <-chan http.Descriptor {
	call, gen := s.begin()
	out := make(chan http.Descriptor, 1)
	go func() {
		defer close(out)
		desc := s.dispatcher.Dispatch(ctx, call)
		if !s.cell.Apply(gen, desc) {
			s.logger.Debug("discarding stale response", slog.Uint64("generation", gen))
		}
		out <- desc
	}()
	return out
}

func (s *Session) begin() (http.Call, uint64) {
	s.mu.Lock()
	snapshot := s.draft.Clone()
	s.mu.Unlock()
	return http.CallFromDraft(snapshot, s.match), s.cell.Begin()
}

// Current returns the live response, if any.
func (s *Session) Current() (http.Descriptor, bool) {
	return s.cell.Current()
}

// Pending reports whether a send is in flight.
func (s *Session) Pending() bool {
	return s.cell.Pending()
}

// Clear discards the live response.
func (s *Session) Clear() {
	s.cell.Clear()
}

// Save snapshots the live draft under name.
func (s *Session) Save(name string) error {
	s.mu.Lock()
	saved, err := draft.NewSaved(name, s.draft, s.now())
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.store.Save(saved)
}

// Load replaces the live draft with a copy of the saved request at index.
func (s *Session) Load(index int) error {
	d, err := s.store.Load(index)
	if err != nil {
		return err
	}
	s.SetDraft(d)
	return nil
}

func (s *Session) Delete(index int) error {
	return s.store.Delete(index)
}

func (s *Session) Saved() ([]draft.Saved, error) {
	return s.store.List()
}
