package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/eventum-app/eventum/pkg/tracing"
)

// Models is the data layer screens depend on.
type Models interface {
	GetProfile(ctx context.Context) (Profile, error)
	PutProfile(ctx context.Context, p Profile) error
	GetUserOwnEvents(ctx context.Context, uid int64) (EventGroups, error)
	GetUserSubscriptions(ctx context.Context, uid int64) (EventGroups, error)
	CreateEvent(ctx context.Context, e NewEvent) (Event, error)
	GetTagList(ctx context.Context) ([]Tag, error)
	SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error)
	GetChats(ctx context.Context) ([]Chat, error)
	GetLastMessages(ctx context.Context, uid, chatID int64, limit int) ([]Message, error)
	PostLogin(ctx context.Context, c Credentials) (User, error)
}

// Observer receives per-call timings. The metrics package implements it.
type Observer interface {
	ModelRequest(op string, d time.Duration, err error)
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client implements Models over HTTP and JSON.
type Client struct {
	api      string
	chat     string
	http     *http.Client
	logger   *slog.Logger
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default client, which keeps cookies.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithChatBase sets the chat service base URL. Defaults to the API base
// with its last path element replaced by "chats".
func WithChatBase(base string) ClientOption {
	return func(c *Client) {
		c.chat = strings.TrimRight(base, "/")
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver sets the call observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a client for the API rooted at apiBase, for example
// "https://eventum.xyz/api/srv".
func NewClient(apiBase string, opts ...ClientOption) *Client {
	api := strings.TrimRight(apiBase, "/")
	c := &Client{api: api, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.chat == "" {
		if i := strings.LastIndex(api, "/"); i > strings.Index(api, "://")+2 {
			c.chat = api[:i] + "/chats"
		} else {
			c.chat = api + "/chats"
		}
	}
	if c.http == nil {
		jar, _ := cookiejar.New(nil)
		c.http = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}
	return c
}

// GetProfile fetches the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.do(ctx, "get_profile", http.MethodGet, c.api+"/profile", nil, &p)
	return p, err
}

// PutProfile saves p.
func (c *Client) PutProfile(ctx context.Context, p Profile) error {
	return c.do(ctx, "put_profile", http.MethodPut, c.api+"/profile", p, nil)
}

// GetUserOwnEvents lists the events uid created.
func (c *Client) GetUserOwnEvents(ctx context.Context, uid int64) (EventGroups, error) {
	var g EventGroups
	if uid <= 0 {
		return g, &Error{Op: "own_events", Err: fmt.Errorf("%w: invalid profile id %d", ErrInvalidRequest, uid)}
	}
	err := c.do(ctx, "own_events", http.MethodGet, fmt.Sprintf("%s/profile/%d/own-events", c.api, uid), nil, &g)
	return g, err
}

// GetUserSubscriptions lists the events uid joined.
func (c *Client) GetUserSubscriptions(ctx context.Context, uid int64) (EventGroups, error) {
	var g EventGroups
	if uid <= 0 {
		return g, &Error{Op: "subscriptions", Err: fmt.Errorf("%w: invalid profile id %d", ErrInvalidRequest, uid)}
	}
	err := c.do(ctx, "subscriptions", http.MethodGet, fmt.Sprintf("%s/profile/%d/subscriptions", c.api, uid), nil, &g)
	return g, err
}

// CreateEvent posts e to the endpoint for its kind.
func (c *Client) CreateEvent(ctx context.Context, e NewEvent) (Event, error) {
	var out Event
	if err := e.Validate(); err != nil {
		return out, &Error{Op: "create_event", Err: err}
	}
	err := c.do(ctx, "create_event", http.MethodPost, c.api+"/events/"+string(e.Kind), e, &out)
	if err == nil && out.Kind == "" {
		out.Kind = e.Kind
	}
	return out, err
}

// GetTagList fetches every tag.
func (c *Client) GetTagList(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := c.do(ctx, "tags", http.MethodGet, c.api+"/tags/feed", nil, &tags)
	return tags, err
}

// SearchEvents runs a paged search.
func (c *Client) SearchEvents(ctx context.Context, req SearchRequest) ([]Event, error) {
	var events []Event
	if err := req.Validate(); err != nil {
		return nil, &Error{Op: "search", Err: err}
	}
	err := c.do(ctx, "search", http.MethodPost, c.api+"/events", req, &events)
	return events, err
}

// GetChats lists the signed-in user's chats.
func (c *Client) GetChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	err := c.do(ctx, "chats", http.MethodPost, c.chat+"/list", nil, &chats)
	return chats, err
}

// GetLastMessages fetches the first page of chatID's messages as seen by
// uid.
func (c *Client) GetLastMessages(ctx context.Context, uid, chatID int64, limit int) ([]Message, error) {
	body := struct {
		UID    int64 `json:"uid"`
		ChatID int64 `json:"chat_id"`
		Limit  int   `json:"limit"`
		Page   int   `json:"page"`
	}{uid, chatID, limit, 1}
	var msgs []Message
	err := c.do(ctx, "messages", http.MethodPut, fmt.Sprintf("%s/%d", c.chat, chatID), body, &msgs)
	return msgs, err
}

// PostLogin signs in. A response without a name is ErrLoginRejected with
// the server's message.
func (c *Client) PostLogin(ctx context.Context, creds Credentials) (User, error) {
	var resp struct {
		User
		Message string `json:"message"`
	}
	if err := c.do(ctx, "login", http.MethodPost, c.api+"/login", creds, &resp); err != nil {
		return User{}, err
	}
	if resp.Name == "" {
		return User{}, &Error{Op: "login", Status: http.StatusOK, Message: resp.Message, Err: ErrLoginRejected}
	}
	return resp.User, nil
}

// do sends one JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, op, method, url string, body, out any) (err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "model."+op, tracing.KeyOp.String(op))
	defer func() {
		tracing.End(span, err)
		if c.observer != nil {
			c.observer.ModelRequest(op, time.Since(start), err)
		}
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("model request failed", "op", op, "error", err)
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(tracing.KeyStatus.Int(resp.StatusCode))

	if class := classify(resp.StatusCode); class != nil {
		e := &Error{Op: op, Status: resp.StatusCode, Err: class}
		if resp.StatusCode <= 499 {
			e.Message = errorMessage(resp.Body)
		}
		c.logger.Debug("model request rejected", "op", op, "status", resp.StatusCode)
		return e
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts {"message": "..."} from an error body.
func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
