package vtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/realtime"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// FakeModels implements model.Models from canned values. Set the fields
// before the screen under test runs; the methods are safe to call from
// any goroutine.
type FakeModels struct {
	Profile          model.Profile
	ProfileErr       error
	PutProfileErr    error
	OwnEvents        model.EventGroups
	OwnEventsErr     error
	Subscriptions    model.EventGroups
	SubscriptionsErr error
	Created          model.Event
	CreateErr        error
	Tags             []model.Tag
	TagsErr          error
	Search           []model.Event
	SearchErr        error
	Chats            []model.Chat
	ChatsErr         error
	Messages         map[int64][]model.Message
	MessagesErr      error
	User             model.User
	LoginErr         error

	mu       sync.Mutex
	calls    []string
	gates    map[string]chan struct{}
	requests []any
}

var _ model.Models = (*FakeModels)(nil)

// Hold blocks every later call of op until release is called.
func (f *FakeModels) Hold(op string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	if f.gates == nil {
		f.gates = make(map[string]chan struct{})
	}
	f.gates[op] = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[op] == gate {
				delete(f.gates, op)
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the operations called so far, in order.
func (f *FakeModels) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times op was called.
func (f *FakeModels) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Requests returns the request values passed to calls that take one.
func (f *FakeModels) Requests() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.requests...)
}

func (f *FakeModels) enter(op string, req any) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	if req != nil {
		f.requests = append(f.requests, req)
	}
	gate := f.gates[op]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *FakeModels) GetProfile(context.Context) (model.Profile, error) {
	f.enter("get_profile", nil)
	return f.Profile, f.ProfileErr
}

func (f *FakeModels) PutProfile(_ context.Context, p model.Profile) error {
	f.enter("put_profile", p)
	return f.PutProfileErr
}

func (f *FakeModels) GetUserOwnEvents(_ context.Context, uid int64) (model.EventGroups, error) {
	f.enter("own_events", uid)
	return f.OwnEvents, f.OwnEventsErr
}

func (f *FakeModels) GetUserSubscriptions(_ context.Context, uid int64) (model.EventGroups, error) {
	f.enter("subscriptions", uid)
	return f.Subscriptions, f.SubscriptionsErr
}

func (f *FakeModels) CreateEvent(_ context.Context, e model.NewEvent) (model.Event, error) {
	f.enter("create_event", e)
	return f.Created, f.CreateErr
}

func (f *FakeModels) GetTagList(context.Context) ([]model.Tag, error) {
	f.enter("tags", nil)
	return f.Tags, f.TagsErr
}

func (f *FakeModels) SearchEvents(_ context.Context, req model.SearchRequest) ([]model.Event, error) {
	f.enter("search", req)
	return f.Search, f.SearchErr
}

func (f *FakeModels) GetChats(context.Context) ([]model.Chat, error) {
	f.enter("chats", nil)
	return f.Chats, f.ChatsErr
}

func (f *FakeModels) GetLastMessages(_ context.Context, _ int64, chatID int64, _ int) ([]model.Message, error) {
	f.enter("messages", chatID)
	return f.Messages[chatID], f.MessagesErr
}

func (f *FakeModels) PostLogin(_ context.Context, c model.Credentials) (model.User, error) {
	f.enter("login", c)
	return f.User, f.LoginErr
}

// ErrConnClosed is returned by FakeConn after Close.
var ErrConnClosed = errors.New("vtest: connection closed")

// FakeConn is an in-memory realtime.Conn.
type FakeConn struct {
	in     chan []byte
	drop   chan error
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written []string
}

// NewFakeConn creates an open connection.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		in:     make(chan []byte, 16),
		drop:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

// Push queues v, JSON encoded, for the reader.
func (c *FakeConn) Push(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.in <- data
}

// Drop makes the next read fail with err.
func (c *FakeConn) Drop(err error) {
	c.drop <- err
}

// Written returns the frames the client sent.
func (c *FakeConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

// Closed reports whether Close was called.
func (c *FakeConn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *FakeConn) ReadMessage() ([]byte, error) {
	select {
	case b := <-c.in:
		return b, nil
	case err := <-c.drop:
		return nil, err
	case <-c.closed:
		return nil, ErrConnClosed
	}
}

func (c *FakeConn) WriteMessage(data []byte) error {
	if c.Closed() {
		return ErrConnClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, string(data))
	return nil
}

func (c *FakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// FakeDialer hands out queued FakeConns. With none queued it fails.
type FakeDialer struct {
	Err error

	mu    sync.Mutex
	queue []*FakeConn
	all   []*FakeConn
	urls  []string
}

var _ realtime.Dialer = (*FakeDialer)(nil)

// Queue adds connections for later dials.
func (d *FakeDialer) Queue(conns ...*FakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, conns...)
}

// Conns returns every connection dialed so far.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeConn(nil), d.all...)
}

// URLs returns the dialed URLs.
func (d *FakeDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Dial implements realtime.Dialer.
func (d *FakeDialer) Dial(_ context.Context, url string) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.queue) == 0 {
		return nil, errors.New("vtest: connection refused")
	}
	c := d.queue[0]
	d.queue = d.queue[1:]
	d.all = append(d.all, c)
	return c, nil
}
