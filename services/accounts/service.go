package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"seoulfest/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service manages persistence of user accounts.
type Service struct {
	mu    sync.RWMutex
	path  string
	users map[string]models.User
}

// NewService creates an accounts service storing data inside the provided
// directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "users.json"),
		users: make(map[string]models.User),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Get returns the user with the given ID if present.
func (s *Service) Get(id string) (models.User, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.User{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}

// GetByUsername returns the user with the given username if present.
func (s *Service) GetByUsername(username string) (models.User, bool) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return models.User{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.ToLower(u.Username) == username {
			return u, true
		}
	}
	return models.User{}, false
}

// Create registers a new user with the provided username and password.
func (s *Service) Create(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}

	password = strings.TrimSpace(password)
	if password == "" {
		return models.User{}, ErrPasswordRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Usernames are unique case-insensitively
	lowerUsername := strings.ToLower(username)
	for _, u := range s.users {
		if strings.ToLower(u.Username) == lowerUsername {
			return models.User{}, ErrUsernameExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.users[user.ID] = user

	if err := s.saveLocked(); err != nil {
		delete(s.users, user.ID)
		return models.User{}, err
	}

	return user, nil
}

// Authenticate verifies the username and password, returning the user if
// valid.
func (s *Service) Authenticate(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lowerUsername := strings.ToLower(username)
	var user models.User
	found := false
	for _, u := range s.users {
		if strings.ToLower(u.Username) == lowerUsername {
			user = u
			found = true
			break
		}
	}

	if !found {
		// Run a bcrypt comparison anyway to prevent timing attacks
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummy"), []byte(password))
		return models.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// UpdatePassword changes the password for a user.
func (s *Service) UpdatePassword(id, newPassword string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrUserNotFound
	}

	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrPasswordRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user

	return s.saveLocked()
}

// Count returns the number of registered users.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open users file: %w", err)
	}
	defer file.Close()

	var stored []models.UserStorage
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode users: %w", err)
	}

	s.users = make(map[string]models.User, len(stored))
	for _, us := range stored {
		if strings.TrimSpace(us.ID) == "" {
			continue
		}
		user := us.ToUser()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC()
		}
		if user.UpdatedAt.IsZero() {
			user.UpdatedAt = user.CreatedAt
		}
		s.users[user.ID] = user
	}

	return nil
}

func (s *Service) saveLocked() error {
	storage := make([]models.UserStorage, 0, len(s.users))
	for _, user := range s.users {
		storage = append(storage, user.ToStorage())
	}

	sort.Slice(storage, func(i, j int) bool {
		return storage[i].CreatedAt.Before(storage[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create users temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(storage); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode users: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync users: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close users temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}

	return nil
}
