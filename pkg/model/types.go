package model

import (
	"fmt"
	"time"
)

// Avatar is a profile photo. Path names an uploaded object; Img carries
// base64 data on upload.
type Avatar struct {
	Path string `json:"path,omitempty"`
	Img  string `json:"img,omitempty"`
}

// Profile is the signed-in user's profile. About is only present when the
// caller is allowed to see the full profile.
type Profile struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	About    *string `json:"about,omitempty"`
	Avatar   Avatar  `json:"avatar"`
	Tags     []Tag   `json:"tags,omitempty"`
	Birthday string  `json:"birthday,omitempty"`
}

// Authorized reports whether the profile was returned in full.
func (p Profile) Authorized() bool {
	return p.About != nil
}

// Tag is one entry of the tag list.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EventKind is an event's size class.
type EventKind string

const (
	KindBig   EventKind = "big"
	KindMid   EventKind = "mid"
	KindSmall EventKind = "small"
)

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case KindBig, KindMid, KindSmall:
		return true
	}
	return false
}

// Event is an event as listed by the API.
type Event struct {
	ID          int64     `json:"id"`
	UID         int64     `json:"uid"`
	Kind        EventKind `json:"type,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []int64   `json:"tags,omitempty"`
	Date        time.Time `json:"date"`
	Photos      []string  `json:"photos,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Public      bool      `json:"public,omitempty"`
}

// EventGroups is the grouped listing returned for a profile.
type EventGroups struct {
	Small []Event `json:"small_events"`
	Mid   []Event `json:"mid_events"`
	Big   []Event `json:"big_events"`
}

// Empty reports whether no group has an event.
func (g EventGroups) Empty() bool {
	return len(g.Small) == 0 && len(g.Mid) == 0 && len(g.Big) == 0
}

// All returns every event with Kind filled in from its group, small
// first.
func (g EventGroups) All() []Event {
	out := make([]Event, 0, len(g.Small)+len(g.Mid)+len(g.Big))
	for _, group := range []struct {
		kind   EventKind
		events []Event
	}{{KindSmall, g.Small}, {KindMid, g.Mid}, {KindBig, g.Big}} {
		for _, e := range group.events {
			if e.Kind == "" {
				e.Kind = group.kind
			}
			out = append(out, e)
		}
	}
	return out
}

// NewEvent is the body of a create request. Kind selects the endpoint and
// must be small or mid.
type NewEvent struct {
	Kind        EventKind `json:"-"`
	UID         int64     `json:"uid"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []int64   `json:"tags,omitempty"`
	Date        time.Time `json:"date"`
	Photos      []string  `json:"photos,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Public      bool      `json:"public,omitempty"`
}

// Validate checks the fields the API requires.
func (e NewEvent) Validate() error {
	if e.Kind != KindSmall && e.Kind != KindMid {
		return fmt.Errorf("%w: event kind %q", ErrInvalidRequest, e.Kind)
	}
	if e.UID == 0 {
		return fmt.Errorf("%w: missing uid", ErrInvalidRequest)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidRequest)
	}
	return nil
}

// SearchRequest is a paged event search.
type SearchRequest struct {
	Query string  `json:"query,omitempty"`
	Tags  []int64 `json:"tags,omitempty"`
	UID   int64   `json:"uid,omitempty"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// Validate checks paging.
func (r SearchRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidRequest)
	}
	if r.Limit < 1 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidRequest)
	}
	return nil
}

// Chat is one conversation in the chat list.
type Chat struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Avatar      string    `json:"avatar,omitempty"`
	LastMessage string    `json:"last_message,omitempty"`
	Updated     time.Time `json:"updated"`
	Unread      bool      `json:"unread,omitempty"`
}

// Message is one chat message.
type Message struct {
	UID  int64  `json:"uid"`
	Body string `json:"body"`
}

// Credentials is a login request. Exactly one of Email and Phone is set.
type Credentials struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// User is the result of a successful login.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
