package router

import (
	"errors"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"", "/", nil},
		{"/", "/", nil},
		{"/profile/", "/profile", nil},
		{"/a//b", "/a/b", nil},
		{"/a/./b/../c", "/a/c", nil},
		{"search", "/search", nil},
		{"/search?q=go&tag=1", "/search?q=go&tag=1", nil},
		{"/search?", "/search", nil},
		{"/../etc", "", ErrPathEscapesRoot},
		{`/a\b`, "", ErrBackslashInPath},
		{"/a%00", "", ErrNullByteInPath},
		{"/a%zz", "", ErrInvalidPercentEscape},
		{"http://evil.example", "", ErrInvalidPath},
		{"//evil.example", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CanonicalizePath(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodedSlashInParam(t *testing.T) {
	f := newFixture(t)
	if _, err := f.router.Match("/profile/a%2Fb"); !errors.Is(err, ErrEncodedSlash) {
		t.Errorf("err = %v, want ErrEncodedSlash", err)
	}
}

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory("")
	if h.Current() != "/" {
		t.Fatalf("Current = %q", h.Current())
	}
	if !h.Push("/a") || h.Push("/a") {
		t.Error("duplicate push should coalesce")
	}
	h.Push("/b")
	h.Back()
	h.Push("/c")
	if got := h.Entries(); len(got) != 3 || got[2] != "/c" {
		t.Errorf("forward entries not dropped: %v", got)
	}

	h.Sync("/a")
	if h.Current() != "/a" {
		t.Errorf("sync back: Current = %q", h.Current())
	}
	h.Sync("/c")
	if h.Current() != "/c" {
		t.Errorf("sync forward: Current = %q", h.Current())
	}
	h.Sync("/elsewhere")
	if h.Current() != "/elsewhere" || h.Len() != 4 {
		t.Errorf("sync unknown: Current = %q Len = %d", h.Current(), h.Len())
	}
}
