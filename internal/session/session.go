package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Data is the opaque per-session blob: a flat key space of JSON values.
// Malformed values are treated as absent and overwritten on the next Set.
type Data map[string]json.RawMessage

type Store interface {
	// Load returns the session blob, empty (never nil) if the session is
	// unknown.
	Load(ctx context.Context, sid string) (Data, error)
	Save(ctx context.Context, sid string, data Data) error
	Delete(ctx context.Context, sid string) error
}

// Session binds a session ID to its loaded data and persists every mutation
// immediately. Concurrent requests sharing a session race last-writer-wins.
type Session struct {
	ID    string
	store Store
	data  Data
}

func New(store Store) *Session {
	return &Session{ID: uuid.NewString(), store: store, data: Data{}}
}

func Open(ctx context.Context, store Store, sid string) (*Session, error) {
	data, err := store.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = Data{}
	}
	return &Session{ID: sid, store: store, data: data}, nil
}

// Get decodes the value under key into dest. A missing or malformed value
// reports false and leaves dest untouched.
func (s *Session) Get(key string, dest any) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s *Session) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return s.store.Save(ctx, s.ID, s.data)
}

func (s *Session) Unset(ctx context.Context, key string) error {
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.store.Save(ctx, s.ID, s.data)
}

// Rotate gives the session a fresh ID carrying the current data over, and
// removes the old record. Called on login to prevent fixation.
func (s *Session) Rotate(ctx context.Context) error {
	old := s.ID
	s.ID = uuid.NewString()
	if err := s.store.Save(ctx, s.ID, s.data); err != nil {
		s.ID = old
		return err
	}
	return s.store.Delete(ctx, old)
}
