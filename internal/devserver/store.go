package devserver

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/eventum-app/eventum/pkg/model"
)

const (
	bucketUsers    = "users"
	bucketLogins   = "logins"
	bucketEvents   = "events"
	bucketTags     = "tags"
	bucketChats    = "chats"
	bucketMessages = "messages"
)

var buckets = []string{bucketUsers, bucketLogins, bucketEvents, bucketTags, bucketChats, bucketMessages}

var (
	// ErrNotFound is returned for a missing record.
	ErrNotFound = errors.New("devserver: not found")

	// ErrBadCredentials is returned by Authenticate.
	ErrBadCredentials = errors.New("devserver: wrong login or password")

	// ErrNotMember is returned when a user reads a chat they are not in.
	ErrNotMember = errors.New("devserver: not a chat member")

	// ErrLoginTaken is returned by AddUser for a duplicate email or phone.
	ErrLoginTaken = errors.New("devserver: login already registered")
)

type userRecord struct {
	Profile       model.Profile `json:"profile"`
	Password      string        `json:"password"`
	Subscriptions []int64       `json:"subscriptions,omitempty"`
}

type chatRecord struct {
	Chat    model.Chat `json:"chat"`
	Members []int64    `json:"members"`
}

// Store keeps dev server data in a bbolt file.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("devserver: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("devserver: init %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Empty reports whether no user exists yet.
func (s *Store) Empty() (bool, error) {
	empty := true
	err := s.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket([]byte(bucketUsers)).Cursor().First()
		empty = k == nil
		return nil
	})
	return empty, err
}

func marshalID(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func unmarshalID(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func get(b *bolt.Bucket, id int64, v any) error {
	data := b.Get(marshalID(id))
	if data == nil {
		return ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func put(b *bolt.Bucket, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(marshalID(id), data)
}

func each[T any](b *bolt.Bucket, fn func(T) error) error {
	return b.ForEach(func(_, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		return fn(v)
	})
}

func loginKey(email, phone string) string {
	if email != "" {
		return "email:" + strings.ToLower(email)
	}
	return "phone:" + strings.TrimPrefix(phone, "+")
}

// AddUser stores p with a new id. About is always present for the owner.
func (s *Store) AddUser(p model.Profile, password string) (model.Profile, error) {
	if p.About == nil {
		about := ""
		p.About = &about
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		logins := tx.Bucket([]byte(bucketLogins))
		var keys [][]byte
		if p.Email != "" {
			keys = append(keys, []byte(loginKey(p.Email, "")))
		}
		if p.Phone != "" {
			keys = append(keys, []byte(loginKey("", p.Phone)))
		}
		if len(keys) == 0 {
			return fmt.Errorf("devserver: user %q has no email or phone", p.Name)
		}
		for _, key := range keys {
			if logins.Get(key) != nil {
				return ErrLoginTaken
			}
		}
		users := tx.Bucket([]byte(bucketUsers))
		seq, err := users.NextSequence()
		if err != nil {
			return err
		}
		p.ID = int64(seq)
		for _, key := range keys {
			if err := logins.Put(key, marshalID(p.ID)); err != nil {
				return err
			}
		}
		return put(users, p.ID, userRecord{Profile: p, Password: password})
	})
	return p, err
}

func (s *Store) user(tx *bolt.Tx, uid int64) (userRecord, error) {
	var u userRecord
	err := get(tx.Bucket([]byte(bucketUsers)), uid, &u)
	return u, err
}

// Profile returns uid's full profile.
func (s *Store) Profile(uid int64) (model.Profile, error) {
	var u userRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		u, err = s.user(tx, uid)
		return err
	})
	return u.Profile, err
}

// UpdateProfile replaces the editable fields of uid's profile.
func (s *Store) UpdateProfile(uid int64, p model.Profile) (model.Profile, error) {
	var out model.Profile
	err := s.db.Update(func(tx *bolt.Tx) error {
		u, err := s.user(tx, uid)
		if err != nil {
			return err
		}
		if p.About != nil {
			u.Profile.About = p.About
		}
		if p.Tags != nil {
			u.Profile.Tags = p.Tags
		}
		if p.Name != "" {
			u.Profile.Name = p.Name
		}
		out = u.Profile
		return put(tx.Bucket([]byte(bucketUsers)), uid, u)
	})
	return out, err
}

// Authenticate checks c against the stored password.
func (s *Store) Authenticate(c model.Credentials) (model.User, error) {
	var user model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(bucketLogins)).Get([]byte(loginKey(c.Email, c.Phone)))
		if id == nil {
			return ErrBadCredentials
		}
		u, err := s.user(tx, unmarshalID(id))
		if err != nil {
			return err
		}
		if subtle.ConstantTimeCompare([]byte(u.Password), []byte(c.Password)) != 1 {
			return ErrBadCredentials
		}
		user = model.User{ID: u.Profile.ID, Name: u.Profile.Name}
		return nil
	})
	return user, err
}

// AddTag stores a tag named name.
func (s *Store) AddTag(name string) (model.Tag, error) {
	t := model.Tag{Name: name}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTags))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		t.ID = int64(seq)
		return put(b, t.ID, t)
	})
	return t, err
}

// Tags lists every tag in id order.
func (s *Store) Tags() ([]model.Tag, error) {
	tags := []model.Tag{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx.Bucket([]byte(bucketTags)), func(t model.Tag) error {
			tags = append(tags, t)
			return nil
		})
	})
	return tags, err
}

// CreateEvent stores e as an event of kind owned by e.UID.
func (s *Store) CreateEvent(kind model.EventKind, e model.NewEvent) (model.Event, error) {
	out := model.Event{
		UID:         e.UID,
		Kind:        kind,
		Title:       e.Title,
		Description: e.Description,
		Tags:        e.Tags,
		Date:        e.Date,
		Photos:      e.Photos,
		Limit:       e.Limit,
		Public:      e.Public,
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		if _, err := s.user(tx, e.UID); err != nil {
			return fmt.Errorf("owner %d: %w", e.UID, err)
		}
		b := tx.Bucket([]byte(bucketEvents))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		out.ID = int64(seq)
		return put(b, out.ID, out)
	})
	return out, err
}

// Events lists every event in id order.
func (s *Store) Events() ([]model.Event, error) {
	var events []model.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx.Bucket([]byte(bucketEvents)), func(e model.Event) error {
			events = append(events, e)
			return nil
		})
	})
	return events, err
}

// Subscribe records that uid joined eventID.
func (s *Store) Subscribe(uid, eventID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var e model.Event
		if err := get(tx.Bucket([]byte(bucketEvents)), eventID, &e); err != nil {
			return fmt.Errorf("event %d: %w", eventID, err)
		}
		u, err := s.user(tx, uid)
		if err != nil {
			return err
		}
		if slices.Contains(u.Subscriptions, eventID) {
			return nil
		}
		u.Subscriptions = append(u.Subscriptions, eventID)
		return put(tx.Bucket([]byte(bucketUsers)), uid, u)
	})
}

// OwnEvents groups the events uid created.
func (s *Store) OwnEvents(uid int64) (model.EventGroups, error) {
	var g model.EventGroups
	err := s.db.View(func(tx *bolt.Tx) error {
		if _, err := s.user(tx, uid); err != nil {
			return err
		}
		return each(tx.Bucket([]byte(bucketEvents)), func(e model.Event) error {
			if e.UID == uid {
				g = group(g, e)
			}
			return nil
		})
	})
	return g, err
}

// Subscriptions groups the events uid joined.
func (s *Store) Subscriptions(uid int64) (model.EventGroups, error) {
	var g model.EventGroups
	err := s.db.View(func(tx *bolt.Tx) error {
		u, err := s.user(tx, uid)
		if err != nil {
			return err
		}
		events := tx.Bucket([]byte(bucketEvents))
		for _, id := range u.Subscriptions {
			var e model.Event
			if err := get(events, id, &e); err != nil {
				continue
			}
			g = group(g, e)
		}
		return nil
	})
	return g, err
}

func group(g model.EventGroups, e model.Event) model.EventGroups {
	switch e.Kind {
	case model.KindBig:
		g.Big = append(g.Big, e)
	case model.KindMid:
		g.Mid = append(g.Mid, e)
	default:
		g.Small = append(g.Small, e)
	}
	return g
}

// CreateChat stores a chat between members.
func (s *Store) CreateChat(title string, members ...int64) (model.Chat, error) {
	c := chatRecord{Chat: model.Chat{Title: title}, Members: members}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketChats))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		c.Chat.ID = int64(seq)
		return put(b, c.Chat.ID, c)
	})
	return c.Chat, err
}

// Chats lists the chats uid is a member of, most recently updated first.
func (s *Store) Chats(uid int64) ([]model.Chat, error) {
	chats := []model.Chat{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx.Bucket([]byte(bucketChats)), func(c chatRecord) error {
			if slices.Contains(c.Members, uid) {
				chats = append(chats, c.Chat)
			}
			return nil
		})
	})
	slices.SortStableFunc(chats, func(a, b model.Chat) int {
		return b.Updated.Compare(a.Updated)
	})
	return chats, err
}

// Members lists chatID's members.
func (s *Store) Members(chatID int64) ([]int64, error) {
	var c chatRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket([]byte(bucketChats)), chatID, &c)
	})
	return c.Members, err
}

// AddMessage appends a message from uid to chatID and updates the chat's
// preview.
func (s *Store) AddMessage(chatID, uid int64, body string, at time.Time) (model.Message, error) {
	msg := model.Message{UID: uid, Body: body}
	err := s.db.Update(func(tx *bolt.Tx) error {
		chats := tx.Bucket([]byte(bucketChats))
		var c chatRecord
		if err := get(chats, chatID, &c); err != nil {
			return err
		}
		if !slices.Contains(c.Members, uid) {
			return ErrNotMember
		}
		msgs := tx.Bucket([]byte(bucketMessages))
		seq, err := msgs.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := msgs.Put(append(marshalID(chatID), marshalID(int64(seq))...), data); err != nil {
			return err
		}
		c.Chat.LastMessage = body
		c.Chat.Updated = at
		return put(chats, chatID, c)
	})
	return msg, err
}

// Messages returns the last limit messages of chatID, oldest first, if
// uid is a member.
func (s *Store) Messages(uid, chatID int64, limit int) ([]model.Message, error) {
	msgs := []model.Message{}
	err := s.db.View(func(tx *bolt.Tx) error {
		var c chatRecord
		if err := get(tx.Bucket([]byte(bucketChats)), chatID, &c); err != nil {
			return err
		}
		if !slices.Contains(c.Members, uid) {
			return ErrNotMember
		}
		prefix := marshalID(chatID)
		cur := tx.Bucket([]byte(bucketMessages)).Cursor()
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			var m model.Message
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return nil
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, err
}
