package devserver

import (
	"fmt"
	"time"

	"github.com/eventum-app/eventum/pkg/model"
)

// Demo accounts created by Seed.
var (
	DemoEmail    = "anna@eventum.xyz"
	DemoPhone    = "+79990001122"
	DemoPassword = "eventum"
)

// Seed fills s with demo data relative to now. It does nothing when s
// already has users.
func Seed(s *Store, now time.Time) error {
	empty, err := s.Empty()
	if err != nil || !empty {
		return err
	}

	about := "Organizer of small concerts and board game nights."
	anna, err := s.AddUser(model.Profile{
		Name:   "Anna",
		Email:  DemoEmail,
		About:  &about,
		Avatar: model.Avatar{Path: "anna.png"},
	}, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed anna: %w", err)
	}
	boris, err := s.AddUser(model.Profile{Name: "Boris", Phone: DemoPhone}, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed boris: %w", err)
	}

	tags := map[string]int64{}
	for _, name := range []string{"music", "art", "sport", "tech", "food"} {
		t, err := s.AddTag(name)
		if err != nil {
			return fmt.Errorf("seed tag %s: %w", name, err)
		}
		tags[name] = t.ID
	}
	if _, err := s.UpdateProfile(anna.ID, model.Profile{Tags: []model.Tag{
		{ID: tags["music"], Name: "music"}, {ID: tags["food"], Name: "food"},
	}}); err != nil {
		return err
	}

	day := 24 * time.Hour
	events := []struct {
		kind  model.EventKind
		owner int64
		event model.NewEvent
	}{
		{model.KindBig, boris.ID, model.NewEvent{
			Title: "City marathon", Description: "Ten kilometres along the river.",
			Tags: []int64{tags["sport"]}, Date: now.Add(14 * day), Photos: []string{"marathon.jpg"}, Public: true,
		}},
		{model.KindMid, anna.ID, model.NewEvent{
			Title: "Jazz in the park", Description: "Open air jam session, bring a blanket.",
			Tags: []int64{tags["music"], tags["art"]}, Date: now.Add(3 * day), Limit: 40, Public: true,
		}},
		{model.KindSmall, anna.ID, model.NewEvent{
			Title: "Board games evening", Description: "Catan and snacks.",
			Tags: []int64{tags["food"]}, Date: now.Add(day), Limit: 6,
		}},
		{model.KindMid, boris.ID, model.NewEvent{
			Title: "Go meetup", Description: "Talks about concurrency and tooling.",
			Tags: []int64{tags["tech"]}, Date: now.Add(7 * day), Limit: 80, Public: true,
		}},
		{model.KindSmall, boris.ID, model.NewEvent{
			Title: "Street food tour", Description: "Five stalls in two hours.",
			Tags: []int64{tags["food"], tags["art"]}, Date: now.Add(5 * day), Limit: 10, Public: true,
		}},
	}
	var created []model.Event
	for _, e := range events {
		e.event.UID = e.owner
		ev, err := s.CreateEvent(e.kind, e.event)
		if err != nil {
			return fmt.Errorf("seed event %q: %w", e.event.Title, err)
		}
		created = append(created, ev)
	}
	for _, i := range []int{0, 3} {
		if err := s.Subscribe(anna.ID, created[i].ID); err != nil {
			return err
		}
	}
	if err := s.Subscribe(boris.ID, created[1].ID); err != nil {
		return err
	}

	chat, err := s.CreateChat("Jazz in the park", anna.ID, boris.ID)
	if err != nil {
		return err
	}
	for i, m := range []struct {
		uid  int64
		body string
	}{
		{boris.ID, "Is there parking near the stage?"},
		{anna.ID, "Yes, on the north side."},
		{boris.ID, "Great, see you there"},
	} {
		if _, err := s.AddMessage(chat.ID, m.uid, m.body, now.Add(time.Duration(i-3)*time.Hour)); err != nil {
			return err
		}
	}
	_, err = s.CreateChat("Go meetup speakers", boris.ID, anna.ID)
	return err
}
