// Package store persists user records to a single shared JSON file. Every
// operation reads the whole file, mutates the decoded list and rewrites it.
// That is fine at this scale but it is not built for write concurrency: the
// mutex keeps the file intact, while two saves for the same user from
// different devices still resolve last-write-wins with no merge.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"budget-tracker/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or creates) the users file at path.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.writeAll([]models.User{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) readAll() ([]models.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.User{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// writeAll rewrites the whole file through a temp file + rename so a crashed
// write never leaves a truncated users.json behind.
func (s *FileStore) writeAll(users []models.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// CreateUser registers a new user with a default ledger snapshot. Usernames
// are unique, compared case-sensitively.
func (s *FileStore) CreateUser(username, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return nil, ErrUsernameTaken
		}
	}
	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		Data:         models.DefaultSnapshot(),
	}
	users = append(users, user)
	if err := s.writeAll(users); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FileStore) FindByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// GetSnapshot returns the ledger snapshot of one user.
func (s *FileStore) GetSnapshot(userID string) (*models.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			snap := users[i].Data
			return &snap, nil
		}
	}
	return nil, ErrNotFound
}

// SaveSnapshot overwrites the user's stored snapshot whole and stamps
// updatedAt. Last writer wins.
func (s *FileStore) SaveSnapshot(userID string, snap models.LedgerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == userID {
			now := time.Now().UTC()
			users[i].Data = snap
			users[i].UpdatedAt = &now
			return s.writeAll(users)
		}
	}
	return ErrNotFound
}

// Users returns a copy of every record, used by the rate updater sweep.
func (s *FileStore) Users() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}
