package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"taskboard/internal/domain/errors"
)

// Session is the logged-in state of a board user. It travels in the context
// of every call that needs a principal and may be persisted to a file
// between CLI invocations.
type Session struct {
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`

	path string
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil && s.Token != ""
}

// Open loads a session saved by Save. A missing file means nobody is
// logged in and yields ErrNoSession.
func Open(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", path, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	if s.Token == "" {
		return nil, errors.ErrNoSession
	}
	s.path = path
	return &s, nil
}

// Save writes the session to path with owner-only permissions.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	s.path = path
	return nil
}

// Close forgets the credentials and removes the session file it was loaded
// from or saved to.
func (s *Session) Close() error {
	s.Token = ""
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session %s: %w", s.path, err)
	}
	s.path = ""
	return nil
}
