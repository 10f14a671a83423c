package model

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

type calls struct {
	ops  []string
	errs []error
}

func (c *calls) ModelRequest(op string, _ time.Duration, err error) {
	c.ops = append(c.ops, op)
	c.errs = append(c.errs, err)
}

func newServer(t *testing.T, handler http.HandlerFunc) (*Client, *[]recorded, *calls) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &rec.Body)
			}
		}
		reqs = append(reqs, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	obs := &calls{}
	return NewClient(srv.URL+"/api/srv", WithLogger(quietLogger()), WithObserver(obs)), &reqs, obs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        any
		wantErr     error
		wantMessage string
	}{
		{name: "ok", status: 200, body: map[string]any{"id": 1, "name": "ann", "about": "hi"}},
		{name: "server error", status: 500, body: map[string]string{"message": "db down"}, wantErr: ErrServer, wantMessage: "Server error"},
		{name: "gateway", status: 503, wantErr: ErrServer, wantMessage: "Server error"},
		{name: "unauthorized", status: 401, body: map[string]string{"message": "log in first"}, wantErr: ErrUnauthorized, wantMessage: "log in first"},
		{name: "forbidden", status: 403, wantErr: ErrUnauthorized, wantMessage: "You have no rights to see this"},
		{name: "not found", status: 404, wantErr: ErrNotFound, wantMessage: "Not found"},
		{name: "bad request", status: 400, body: map[string]string{"error": "bad uid"}, wantErr: ErrRequest, wantMessage: "bad uid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, obs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			p, err := c.GetProfile(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatal(err)
				}
				if !p.Authorized() || p.Name != "ann" {
					t.Errorf("profile = %+v", p)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var me *Error
			if !errors.As(err, &me) || me.Status != tt.status || me.Op != "get_profile" {
				t.Errorf("Error = %+v", me)
			}
			if got := ErrorText(err); got != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got, tt.wantMessage)
			}
			if len(obs.ops) != 1 || obs.errs[0] == nil {
				t.Errorf("observer = %+v", obs)
			}
		})
	}
}

func TestProfileWithoutAbout(t *testing.T) {
	c, _, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"id": 3, "name": "guest"})
	})
	p, err := c.GetProfile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Authorized() {
		t.Error("profile without about reported authorized")
	}
}

func TestRequestShapes(t *testing.T) {
	c, reqs, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chats/12":
			writeJSON(w, 200, []Message{{UID: 1, Body: "hi"}})
		case "/api/chats/list":
			writeJSON(w, 200, []Chat{{ID: 12, Title: "club"}})
		case "/api/srv/events":
			writeJSON(w, 200, []Event{{ID: 5, Title: "jam"}})
		case "/api/srv/events/small":
			writeJSON(w, 200, Event{ID: 9, Title: "walk"})
		case "/api/srv/profile/7/own-events":
			writeJSON(w, 200, EventGroups{Small: []Event{{ID: 1}}, Mid: []Event{{ID: 2}}})
		default:
			writeJSON(w, 200, map[string]any{})
		}
	})
	ctx := context.Background()

	msgs, err := c.GetLastMessages(ctx, 1, 12, 20)
	if err != nil || len(msgs) != 1 || msgs[0].Body != "hi" {
		t.Fatalf("GetLastMessages = %v, %v", msgs, err)
	}
	chats, err := c.GetChats(ctx)
	if err != nil || len(chats) != 1 {
		t.Fatalf("GetChats = %v, %v", chats, err)
	}
	events, err := c.SearchEvents(ctx, SearchRequest{Query: "jam", Page: 1, Limit: 10})
	if err != nil || len(events) != 1 {
		t.Fatalf("SearchEvents = %v, %v", events, err)
	}
	created, err := c.CreateEvent(ctx, NewEvent{Kind: KindSmall, UID: 7, Title: "walk"})
	if err != nil || created.Kind != KindSmall {
		t.Fatalf("CreateEvent = %+v, %v", created, err)
	}
	groups, err := c.GetUserOwnEvents(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	all := groups.All()
	if len(all) != 2 || all[0].Kind != KindSmall || all[1].Kind != KindMid {
		t.Errorf("All = %+v", all)
	}

	want := []recorded{
		{Method: "PUT", Path: "/api/chats/12", Body: map[string]any{"uid": 1.0, "chat_id": 12.0, "limit": 20.0, "page": 1.0}},
		{Method: "POST", Path: "/api/chats/list"},
		{Method: "POST", Path: "/api/srv/events", Body: map[string]any{"query": "jam", "page": 1.0, "limit": 10.0}},
		{Method: "POST", Path: "/api/srv/events/small", Body: map[string]any{"uid": 7.0, "title": "walk", "date": "0001-01-01T00:00:00Z"}},
		{Method: "GET", Path: "/api/srv/profile/7/own-events"},
	}
	if diff := cmp.Diff(want, *reqs); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationFailsBeforeSending(t *testing.T) {
	c, reqs, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, nil)
	})
	ctx := context.Background()

	if _, err := c.GetUserOwnEvents(ctx, 0); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("own events err = %v", err)
	}
	if _, err := c.GetUserSubscriptions(ctx, -1); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("subscriptions err = %v", err)
	}
	if _, err := c.SearchEvents(ctx, SearchRequest{Limit: 10}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("search err = %v", err)
	}
	if _, err := c.CreateEvent(ctx, NewEvent{Kind: KindBig, UID: 1, Title: "x"}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("create err = %v", err)
	}
	if len(*reqs) != 0 {
		t.Errorf("%d requests sent", len(*reqs))
	}
}

func TestPostLogin(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		want    User
		wantErr error
		message string
	}{
		{name: "accepted", body: User{ID: 4, Name: "ann"}, want: User{ID: 4, Name: "ann"}},
		{name: "rejected", body: map[string]string{"message": "wrong password"}, wantErr: ErrLoginRejected, message: "wrong password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, tt.body)
			})
			got, err := c.PostLogin(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("user = %+v, want %+v", got, tt.want)
			}
			if tt.message != "" && ErrorText(err) != tt.message {
				t.Errorf("ErrorText = %q", ErrorText(err))
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL+"/api/srv", WithLogger(quietLogger()))

	_, err := c.GetTagList(context.Background())
	var me *Error
	if !errors.As(err, &me) || me.Status != 0 || me.Op != "tags" {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, ErrServer) {
		t.Error("transport error classified as server error")
	}
	if ErrorText(err) != "Something went wrong" {
		t.Errorf("ErrorText = %q", ErrorText(err))
	}
}

func TestChatBase(t *testing.T) {
	tests := []struct {
		api  string
		opts []ClientOption
		want string
	}{
		{api: "https://eventum.xyz/api/srv", want: "https://eventum.xyz/api/chats"},
		{api: "http://localhost:8080", want: "http://localhost:8080/chats"},
		{api: "http://localhost:8080/api/srv/", opts: []ClientOption{WithChatBase("http://chat:9000/")}, want: "http://chat:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.api, func(t *testing.T) {
			if got := NewClient(tt.api, tt.opts...).chat; got != tt.want {
				t.Errorf("chat = %q, want %q", got, tt.want)
			}
		})
	}
}
