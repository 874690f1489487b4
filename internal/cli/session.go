package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	stateDirName = ".tank"
	sessionFile  = "session.json"
)

var ErrNoSession = errors.New("not logged in, run `tank login`")

// Session is the signed-in user kept between CLI runs.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// NewSession stamps the expiry the server reported for token.
func NewSession(username, token string, expiresIn time.Duration, now time.Time) Session {
	s := Session{Username: username, Token: token}
	if expiresIn > 0 {
		s.ExpiresAt = now.Add(expiresIn).UTC()
	}
	return s
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Dir is the per-user state directory, ~/.tank.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home: %w", err)
	}
	dir := filepath.Join(home, stateDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// ReadState decodes the named JSON file under Dir. A missing or empty file
// reports fs.ErrNotExist.
func ReadState(name string, out any) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return fmt.Errorf("%s is empty: %w", name, fs.ErrNotExist)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// WriteState replaces the named file under Dir through a rename so readers
// never see a partial write.
func WriteState(name string, v any) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

func RemoveState(name string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func SaveSession(s Session) error {
	return WriteState(sessionFile, s)
}

// LoadSession returns ErrNoSession when nothing usable is saved.
func LoadSession() (Session, error) {
	var s Session
	err := ReadState(sessionFile, &s)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(s.Token) == "" || s.Expired(time.Now()) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func ClearSession() error {
	return RemoveState(sessionFile)
}
