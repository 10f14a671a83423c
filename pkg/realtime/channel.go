package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eventum-app/eventum/pkg/loop"
)

// ConnectPath is the server's push endpoint.
const ConnectPath = "/ws/connect"

var (
	// ErrNilHandler is returned by Establish without a message handler.
	ErrNilHandler = errors.New("realtime: nil message handler")

	// ErrReconnectExhausted is passed to the error handler when every
	// redial attempt failed.
	ErrReconnectExhausted = errors.New("realtime: reconnect attempts exhausted")

	// ErrClosed is returned by Send on a closed session.
	ErrClosed = errors.New("realtime: session closed")
)

// Endpoint joins a ws:// or wss:// base URL with ConnectPath.
func Endpoint(base string) string {
	return strings.TrimRight(base, "/") + ConnectPath
}

// Observer receives channel events. The metrics package implements it.
type Observer interface {
	MessageDelivered()
	Reconnecting(attempt int)
	ChannelError(kind string)
}

type nopObserver struct{}

func (nopObserver) MessageDelivered()   {}
func (nopObserver) Reconnecting(int)    {}
func (nopObserver) ChannelError(string) {}

// Backoff controls redialing after an unexpected disconnect.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int
}

// DefaultBackoff is used when no WithBackoff option is given.
var DefaultBackoff = Backoff{
	Initial:     500 * time.Millisecond,
	Max:         10 * time.Second,
	MaxAttempts: 5,
}

// delay returns the wait before attempt n, counting from 1.
func (b Backoff) delay(n int) time.Duration {
	d := b.Initial
	for i := 1; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	return d
}

// Channel dials push sessions against one endpoint.
type Channel struct {
	url      string
	loop     *loop.Loop
	dialer   Dialer
	logger   *slog.Logger
	observer Observer
	backoff  Backoff
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer replaces the gorilla/websocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Channel) {
		c.dialer = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(c *Channel) {
		c.observer = o
	}
}

// WithBackoff sets the redial policy. maxAttempts of zero disables
// reconnecting.
func WithBackoff(initial, max time.Duration, maxAttempts int) Option {
	return func(c *Channel) {
		c.backoff = Backoff{Initial: initial, Max: max, MaxAttempts: maxAttempts}
	}
}

// New creates a channel for url whose handlers run on l.
func New(url string, l *loop.Loop, opts ...Option) *Channel {
	c := &Channel{
		url:      url,
		loop:     l,
		dialer:   WebsocketDialer{},
		logger:   slog.Default(),
		observer: nopObserver{},
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("channel", url)
	return c
}

// URL returns the endpoint the channel dials.
func (c *Channel) URL() string {
	return c.url
}

// SessionOption configures one Session.
type SessionOption func(*Session)

// WithErrorHandler sets fn to receive, on the loop, the error that ended
// the session.
func WithErrorHandler(fn func(error)) SessionOption {
	return func(s *Session) {
		s.onError = fn
	}
}

// WithGuard adds a liveness check to every delivery. Pass the owning
// controller's Scope().Alive so a message that races the owner's
// destruction is dropped.
func WithGuard(alive func() bool) SessionOption {
	return func(s *Session) {
		s.guard = alive
	}
}

// Establish dials, identifies as userID, and starts delivering frames to
// onMessage. A dial or identify failure is returned and nothing is left
// running.
func (c *Channel) Establish(ctx context.Context, userID int64, onMessage func(Notification), opts ...SessionOption) (*Session, error) {
	if onMessage == nil {
		return nil, ErrNilHandler
	}
	conn, err := c.connect(ctx, userID)
	if err != nil {
		c.observer.ChannelError("dial")
		return nil, fmt.Errorf("realtime: establish: %w", err)
	}

	s := &Session{
		UserID:  userID,
		channel: c,
		conn:    conn,
		handler: onMessage,
		exited:  make(chan struct{}),
		logger:  c.logger.With("uid", userID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.alive.Store(true)

	go s.read(conn)
	s.logger.Debug("realtime session established")
	return s, nil
}

// connect dials and sends the identify frame.
func (c *Channel) connect(ctx context.Context, userID int64) (Conn, error) {
	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return nil, err
	}
	hello, err := json.Marshal(Identify{UID: userID})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("identify: %w", err)
	}
	return conn, nil
}

// Session is one user's open push channel.
type Session struct {
	UserID int64

	channel *Channel
	handler func(Notification)
	onError func(error)
	guard   func() bool
	logger  *slog.Logger

	alive  atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}

	mu   sync.Mutex
	conn Conn
}

// Alive reports whether Close has not been called.
func (s *Session) Alive() bool {
	return s != nil && s.alive.Load()
}

// Done is closed when the read goroutine has returned.
func (s *Session) Done() <-chan struct{} {
	return s.exited
}

// Send writes v as a JSON text frame.
func (s *Session) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("realtime: encode: %w", err)
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if !s.Alive() || conn == nil {
		return ErrClosed
	}
	return conn.WriteMessage(data)
}

// Close detaches the handler, then closes the connection. Later calls do
// nothing.
func (s *Session) Close() error {
	if s == nil || !s.alive.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.logger.Debug("realtime session closed")
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// swap installs a redialed connection unless the session closed meanwhile.
func (s *Session) swap(conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive.Load() {
		return false
	}
	s.conn = conn
	return true
}

func (s *Session) read(conn Conn) {
	defer close(s.exited)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if !s.alive.Load() {
				return
			}
			if closedByServer(err) {
				s.logger.Info("realtime channel closed by server")
				s.fail("closed", err)
				return
			}
			if unexpectedClose(err) {
				s.logger.Warn("realtime read error", "error", err)
			} else {
				s.logger.Debug("realtime read error", "error", err)
			}
			s.channel.observer.ChannelError("read")
			conn.Close()

			if conn = s.reconnect(); conn == nil {
				return
			}
			continue
		}

		n, err := Decode(data)
		if err != nil {
			s.logger.Warn("realtime frame decode error", "error", err)
			s.channel.observer.ChannelError("decode")
			continue
		}
		s.deliver(n)
	}
}

func (s *Session) reconnect() Conn {
	backoff := s.channel.backoff
	var lastErr error
	for attempt := 1; attempt <= backoff.MaxAttempts; attempt++ {
		s.channel.observer.Reconnecting(attempt)
		timer := time.NewTimer(backoff.delay(attempt))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		conn, err := s.channel.connect(s.ctx, s.UserID)
		if err != nil {
			lastErr = err
			s.logger.Debug("realtime redial failed", "attempt", attempt, "error", err)
			continue
		}
		if !s.swap(conn) {
			conn.Close()
			return nil
		}
		s.logger.Info("realtime channel reconnected", "attempt", attempt)
		return conn
	}

	if lastErr == nil {
		s.fail("exhausted", ErrReconnectExhausted)
	} else {
		s.fail("exhausted", fmt.Errorf("%w: %v", ErrReconnectExhausted, lastErr))
	}
	return nil
}

// fail reports err on the loop. The session stays open until its owner
// closes it.
func (s *Session) fail(kind string, err error) {
	s.channel.observer.ChannelError(kind)
	if s.onError == nil {
		s.logger.Warn("realtime channel lost", "error", err)
		return
	}
	s.channel.loop.Dispatch(func() {
		if !s.deliverable() {
			return
		}
		s.onError(err)
	})
}

func (s *Session) deliver(n Notification) {
	s.channel.loop.Dispatch(func() {
		if !s.deliverable() {
			s.logger.Debug("dropping message for closed session")
			return
		}
		s.channel.observer.MessageDelivered()
		s.handler(n)
	})
}

func (s *Session) deliverable() bool {
	return s.alive.Load() && (s.guard == nil || s.guard())
}
