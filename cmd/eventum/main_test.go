package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventum-app/eventum/internal/config"
	"github.com/eventum-app/eventum/internal/devserver"
	"github.com/eventum-app/eventum/internal/errors"
)

func TestVersionShort(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Errorf("version = %q, want %q", got, version)
	}
}

func TestVisitRequiresPath(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"visit"})
	if err := cmd.Execute(); err == nil {
		t.Error("visit without a path should fail")
	}
}

// backend starts a seeded dev server and returns a config pointing at it.
func backend(t *testing.T) *config.Config {
	t.Helper()
	store, err := devserver.Open(filepath.Join(t.TempDir(), "eventum.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if err := devserver.Seed(store, time.Now()); err != nil {
		t.Fatal(err)
	}
	srv := devserver.New(store,
		devserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		devserver.WithRegistry(prometheus.NewRegistry()),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().Close()
		ts.Close()
	})

	cfg := config.New()
	cfg.API.URL = ts.URL + devserver.APIPrefix
	cfg.Realtime.URL = "ws" + strings.TrimPrefix(ts.URL, "http")
	cfg.Realtime.Backoff.Attempts = 1
	cfg.Log.Level = "error"
	return cfg
}

func visit(t *testing.T, cfg *config.Config, opts visitOptions, paths ...string) (string, error) {
	t.Helper()
	color = false
	if opts.timeout == 0 {
		opts.timeout = 5 * time.Second
	}
	var out bytes.Buffer
	err := runVisit(context.Background(), &globals{}, cfg, opts, paths, &out, io.Discard)
	return out.String(), err
}

func TestVisitAnonymous(t *testing.T) {
	cfg := backend(t)
	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "search", path: "/search", want: []string{"==> /search", "music", "food"}},
		{name: "profile", path: "/my/profile", want: []string{"You have no rights to see this", "Sign in"}},
		{name: "unknown", path: "/nowhere", want: []string{"Page not found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := visit(t, cfg, visitOptions{}, tt.path)
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestVisitSignedIn(t *testing.T) {
	cfg := backend(t)
	opts := visitOptions{email: devserver.DemoEmail, password: devserver.DemoPassword}

	out, err := visit(t, cfg, opts, "/my/profile", "/chats/1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"==> /my/profile",
		"Anna",
		"Jazz in the park",
		"==> /chats/1",
		"Is there parking near the stage?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVisitBadLogin(t *testing.T) {
	cfg := backend(t)
	_, err := visit(t, cfg, visitOptions{email: devserver.DemoEmail, password: "wrong"}, "/search")
	if errors.Code(err) != "E201" {
		t.Errorf("err = %v, want E201", err)
	}
}
