package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EntityKind names what a Ref points at.
type EntityKind string

const (
	KindPost    EntityKind = "post"
	KindUser    EntityKind = "user"
	KindComment EntityKind = "comment"
)

// Ref identifies an entity across views. Two refs are equal when kind and id match.
type Ref struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// NewRef builds a ref with a normalized id.
func NewRef(kind EntityKind, id string) Ref {
	return Ref{Kind: kind, ID: strings.TrimSpace(id)}
}

// PostRef is shorthand for NewRef(KindPost, id).
func PostRef(id string) Ref { return NewRef(KindPost, id) }

// UserRef is shorthand for NewRef(KindUser, id).
func UserRef(id string) Ref { return NewRef(KindUser, id) }

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

// IsZero reports whether the ref carries no id.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// ID is an identifier decoded from any representation the API emits:
// a string, a number, or an object wrapping one ({"$oid": ...}, {"_id": ...}, {"id": ...}).
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	value, err := decodeID(data)
	if err != nil {
		return err
	}
	*id = ID(value)
	return nil
}

func (id ID) String() string { return string(id) }

func decodeID(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", err
		}
		for _, key := range []string{"$oid", "_id", "id"} {
			if raw, ok := obj[key]; ok {
				return decodeID(raw)
			}
		}
		return "", nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return "", fmt.Errorf("invalid id %s: %w", string(data), err)
		}
		return n.String(), nil
	}
}

// firstID returns the first non-empty id among raw candidates.
func firstID(candidates ...json.RawMessage) (string, error) {
	for _, raw := range candidates {
		if len(raw) == 0 {
			continue
		}
		id, err := decodeID(raw)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}

// IDSet is an ordered set of ids. Decoding accepts bare ids and populated
// user objects and drops duplicates.
type IDSet []string

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IDSet, 0, len(raw))
	for _, item := range raw {
		id, err := decodeID(item)
		if err != nil {
			return err
		}
		if id == "" {
			continue
		}
		out = out.With(id)
	}
	*s = out
	return nil
}

// Contains reports membership.
func (s IDSet) Contains(id string) bool {
	for _, existing := range s {
		if existing == id {
			return true
		}
	}
	return false
}

// With returns a set that includes id. The receiver is not modified.
func (s IDSet) With(id string) IDSet {
	if s.Contains(id) {
		return s
	}
	out := make(IDSet, len(s), len(s)+1)
	copy(out, s)
	return append(out, id)
}

// Without returns a set that excludes id. The receiver is not modified.
func (s IDSet) Without(id string) IDSet {
	out := make(IDSet, 0, len(s))
	for _, existing := range s {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// Clone copies the set.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	out := make(IDSet, len(s))
	copy(out, s)
	return out
}
