package devserver

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eventum-app/eventum/pkg/model"
)

var seedTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "eventum.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := openStore(t)
	if err := Seed(s, seedTime); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestSeedOnce(t *testing.T) {
	s := seededStore(t)
	if err := Seed(s, seedTime); err != nil {
		t.Fatal(err)
	}
	events, err := s.Events()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 5 {
		t.Errorf("events = %d after seeding twice, want 5", len(events))
	}
	tags, _ := s.Tags()
	if len(tags) != 5 {
		t.Errorf("tags = %d, want 5", len(tags))
	}
}

func TestAuthenticate(t *testing.T) {
	s := seededStore(t)
	tests := []struct {
		name  string
		creds model.Credentials
		want  string
		err   error
	}{
		{name: "email", creds: model.Credentials{Email: DemoEmail, Password: DemoPassword}, want: "Anna"},
		{name: "email case", creds: model.Credentials{Email: "ANNA@eventum.xyz", Password: DemoPassword}, want: "Anna"},
		{name: "phone", creds: model.Credentials{Phone: DemoPhone, Password: DemoPassword}, want: "Boris"},
		{name: "phone without plus", creds: model.Credentials{Phone: "79990001122", Password: DemoPassword}, want: "Boris"},
		{name: "wrong password", creds: model.Credentials{Email: DemoEmail, Password: "nope"}, err: ErrBadCredentials},
		{name: "unknown", creds: model.Credentials{Email: "who@eventum.xyz", Password: DemoPassword}, err: ErrBadCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.Authenticate(tt.creds)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if user.Name != tt.want {
				t.Errorf("Name = %q, want %q", user.Name, tt.want)
			}
		})
	}
}

func TestAddUserDuplicateLogin(t *testing.T) {
	s := seededStore(t)
	_, err := s.AddUser(model.Profile{Name: "Other", Email: DemoEmail}, "x")
	if !errors.Is(err, ErrLoginTaken) {
		t.Errorf("err = %v, want ErrLoginTaken", err)
	}
	if _, err := s.AddUser(model.Profile{Name: "Nobody"}, "x"); err == nil {
		t.Error("user without email or phone should be rejected")
	}
}

func TestProfile(t *testing.T) {
	s := seededStore(t)
	p, err := s.Profile(2)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Authorized() {
		t.Error("stored profiles should carry about")
	}

	about := "Runner"
	updated, err := s.UpdateProfile(2, model.Profile{About: &about})
	if err != nil {
		t.Fatal(err)
	}
	if *updated.About != "Runner" || updated.Name != "Boris" {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := s.Profile(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing profile err = %v", err)
	}
}

func titles(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func TestEventGroups(t *testing.T) {
	s := seededStore(t)

	own, err := s.OwnEvents(1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Board games evening", "Jazz in the park"}, titles(own.All())); diff != "" {
		t.Errorf("own events (-want +got):\n%s", diff)
	}

	subs, err := s.Subscriptions(1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Go meetup", "City marathon"}, titles(subs.All())); diff != "" {
		t.Errorf("subscriptions (-want +got):\n%s", diff)
	}

	if _, err := s.OwnEvents(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("own events of missing user err = %v", err)
	}
}

func TestCreateEventNeedsOwner(t *testing.T) {
	s := openStore(t)
	_, err := s.CreateEvent(model.KindSmall, model.NewEvent{UID: 7, Title: "Orphan"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestChatsAndMessages(t *testing.T) {
	s := seededStore(t)

	chats, err := s.Chats(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 || chats[0].Title != "Jazz in the park" {
		t.Fatalf("chats = %+v", chats)
	}
	if chats[0].LastMessage != "Great, see you there" {
		t.Errorf("LastMessage = %q", chats[0].LastMessage)
	}

	msgs, err := s.Messages(1, chats[0].ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Message{{UID: 1, Body: "Yes, on the north side."}, {UID: 2, Body: "Great, see you there"}}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}

	other, err := s.AddUser(model.Profile{Name: "Vera", Email: "vera@eventum.xyz"}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Messages(other.ID, chats[0].ID, 10); !errors.Is(err, ErrNotMember) {
		t.Errorf("non-member read err = %v", err)
	}
	if _, err := s.AddMessage(chats[0].ID, other.ID, "hi", seedTime); !errors.Is(err, ErrNotMember) {
		t.Errorf("non-member write err = %v", err)
	}
	if _, err := s.Messages(1, 99, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing chat err = %v", err)
	}
}
