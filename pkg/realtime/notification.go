package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingUID is returned by Decode for frames without a uid.
var ErrMissingUID = errors.New("realtime: frame has no uid")

// Identify is the first frame a client sends after the connection opens.
type Identify struct {
	UID int64 `json:"uid"`
}

// Notification is a decoded push frame. Fields the runtime does not know
// stay available in Raw.
type Notification struct {
	UID    int64  `json:"uid"`
	Type   string `json:"type,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
	Body   string `json:"body,omitempty"`

	Raw map[string]json.RawMessage `json:"-"`
}

// Field decodes the raw payload field name into v.
func (n Notification) Field(name string, v any) (bool, error) {
	raw, ok := n.Raw[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Decode parses a text frame of the form {uid, ...payload}.
func Decode(data []byte) (Notification, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Notification{}, fmt.Errorf("realtime: decode frame: %w", err)
	}
	uidRaw, ok := raw["uid"]
	if !ok {
		return Notification{}, ErrMissingUID
	}
	uid, err := decodeID(uidRaw)
	if err != nil {
		return Notification{}, fmt.Errorf("realtime: decode uid: %w", err)
	}

	n := Notification{UID: uid, Raw: raw}
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &n.Type); err != nil {
			return Notification{}, fmt.Errorf("realtime: decode type: %w", err)
		}
	}
	if v, ok := raw["chat_id"]; ok {
		if n.ChatID, err = decodeID(v); err != nil {
			return Notification{}, fmt.Errorf("realtime: decode chat_id: %w", err)
		}
	}
	if v, ok := raw["body"]; ok {
		if err := json.Unmarshal(v, &n.Body); err != nil {
			return Notification{}, fmt.Errorf("realtime: decode body: %w", err)
		}
	}
	return n, nil
}

// decodeID accepts a JSON number or a string holding one.
func decodeID(raw json.RawMessage) (int64, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.Int64()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
