// Package poll keeps a dashboard's summary fresh by fetching it on a fixed interval.
package poll

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/loop"
)

const (
	DefaultInterval       = 30 * time.Second
	DefaultRefreshingTail = time.Second

	DefaultErrorMessage  = "Failed to load dashboard data"
	FallbackErrorMessage = "Something went wrong"
)

// Failure tells how the last fetch failed.
type Failure int

const (
	FailureNone Failure = iota
	// FailureTransport: network error, timeout or non-2xx status.
	FailureTransport
	// FailureUnsuccessful: the backend answered {success: false}.
	FailureUnsuccessful
)

// Snapshot is an immutable copy of a Session's state.
type Snapshot struct {
	ResourcePath  string
	Loading       bool
	Refreshing    bool
	Err           string
	Failure       Failure
	Data          json.RawMessage
	LastSuccessAt time.Time
}

func (s Snapshot) HasData() bool { return s.Data != nil }

// View is what a dashboard renders from a Snapshot.
type View struct {
	Loading bool
	// FullPageError replaces the dashboard; only set while no data ever loaded.
	FullPageError string
	// InlineError is shown above stale data when the backend reported a failure.
	InlineError string
	// Refreshing drives the "Updating..." indicator.
	Refreshing bool
	Data       json.RawMessage
}

func (s Snapshot) View() View {
	v := View{Loading: s.Loading, Refreshing: s.Refreshing, Data: s.Data}
	switch {
	case s.Loading:
	case !s.HasData():
		v.FullPageError = s.Err
	case s.Failure == FailureUnsuccessful:
		v.InlineError = s.Err
	}
	return v
}

// Session is the periodic fetch-and-display cycle of one dashboard view.
// All methods must be called on the Session's loop.
type Session struct {
	loop       loop.Loop
	getter     client.Getter
	logger     core.Logger
	path       string
	interval   time.Duration
	tail       time.Duration
	errMessage string
	listeners  []func(Snapshot)

	// loop-only
	state     Snapshot
	running   bool
	loaded    bool
	ticker    loop.Timer
	tailTimer loop.Timer
	inFlight  bool
	seq       uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

type Option func(*Session)

func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRefreshingTail sets how long "refreshing" stays on after a fetch completes.
func WithRefreshingTail(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.tail = d
		}
	}
}

// WithErrorMessage sets the message used when the backend fails without one.
func WithErrorMessage(msg string) Option {
	return func(s *Session) {
		if msg != "" {
			s.errMessage = msg
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithListener registers fn to receive a Snapshot after every state change.
func WithListener(fn func(Snapshot)) Option {
	return func(s *Session) { s.listeners = append(s.listeners, fn) }
}

func NewSession(l loop.Loop, getter client.Getter, path string, opts ...Option) *Session {
	s := &Session{
		loop:       l,
		getter:     getter,
		logger:     core.NopLogger{},
		path:       path,
		interval:   DefaultInterval,
		tail:       DefaultRefreshingTail,
		errMessage: DefaultErrorMessage,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.ResourcePath = path
	return s
}

// Start fetches immediately, then every interval until Stop. Starting a running Session is a no-op.
func (s *Session) Start(ctx context.Context) {
	if s.running {
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state.Loading = !s.loaded
	s.notify()

	s.fetch()
	s.scheduleTick()
}

// Stop cancels the timers and the in-flight request. Nothing fires and nothing changes afterwards.
func (s *Session) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.seq++ // late completions are discarded
	s.inFlight = false
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.tailTimer != nil {
		s.tailTimer.Stop()
		s.tailTimer = nil
	}
	s.state.Refreshing = false // no notification after Stop
	s.cancel()
}

// Refresh fetches now, unless a fetch is already in flight.
func (s *Session) Refresh() {
	if s.running {
		s.fetch()
	}
}

func (s *Session) Running() bool { return s.running }

func (s *Session) Snapshot() Snapshot { return s.state }

func (s *Session) scheduleTick() {
	s.ticker = s.loop.AfterFunc(s.interval, func() {
		s.ticker = nil
		s.fetch()
		s.scheduleTick()
	})
}

func (s *Session) fetch() {
	if s.inFlight {
		s.logger.Debug("poll: fetch still in flight, skipping tick", map[string]interface{}{"path": s.path})
		return
	}
	s.seq++
	seq := s.seq
	s.inFlight = true

	if s.tailTimer != nil {
		s.tailTimer.Stop()
		s.tailTimer = nil
	}
	if !s.state.Refreshing {
		s.state.Refreshing = true
		s.notify()
	}

	ctx, getter, path := s.ctx, s.getter, s.path
	s.loop.Go(func() {
		env, err := getter.Get(ctx, path)
		s.loop.Post(func() { s.complete(seq, env, err) })
	})
}

func (s *Session) complete(seq uint64, env client.Envelope, err error) {
	if !s.running || seq != s.seq {
		s.logger.Debug("poll: discarding stale response", map[string]interface{}{"path": s.path, "seq": seq})
		return
	}
	s.inFlight = false

	switch {
	case err != nil:
		s.state.Err = core.FirstNonEmpty(client.MessageOf(err), FallbackErrorMessage)
		s.state.Failure = FailureTransport
		s.logger.Warn("poll: fetch failed", err, map[string]interface{}{"path": s.path})
	case !env.Success:
		s.state.Err = core.FirstNonEmpty(env.Message, s.errMessage)
		s.state.Failure = FailureUnsuccessful
		s.logger.Warn("poll: unsuccessful response", map[string]interface{}{"path": s.path, "message": env.Message})
	default:
		s.state.Data = env.Data
		s.state.Err = ""
		s.state.Failure = FailureNone
		s.state.LastSuccessAt = s.loop.Now()
		s.loaded = true
		s.logger.Debug("poll: fetched", map[string]interface{}{"path": s.path})
	}
	s.state.Loading = false
	s.notify()

	s.tailTimer = s.loop.AfterFunc(s.tail, func() {
		s.tailTimer = nil
		s.state.Refreshing = false
		s.notify()
	})
}

func (s *Session) notify() {
	snap := s.state
	for _, fn := range s.listeners {
		fn(snap)
	}
}
