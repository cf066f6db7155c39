package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// StoredSession is what survives between CLI invocations.
type StoredSession struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// TokenStore keeps the session token in a single JSON file readable only by the owner.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore { return &TokenStore{path: path} }

func (s *TokenStore) Path() string { return s.path }

// Load returns nil, nil when nothing is stored.
func (s *TokenStore) Load() (*StoredSession, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ss StoredSession
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, err
	}
	if ss.Token == "" {
		return nil, nil
	}
	return &ss, nil
}

func (s *TokenStore) Save(ss StoredSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
