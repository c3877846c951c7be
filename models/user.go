package models

import "time"

// User is an account that can like events and hold conversations.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized in API responses
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStorage is the file persistence form of User. Unlike User it carries
// the password hash.
type UserStorage struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToStorage converts a User to its persistence form.
func (u User) ToStorage() UserStorage {
	return UserStorage{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ToUser converts a stored record back to a User.
func (us UserStorage) ToUser() User {
	return User{
		ID:           us.ID,
		Username:     us.Username,
		PasswordHash: us.PasswordHash,
		CreatedAt:    us.CreatedAt,
		UpdatedAt:    us.UpdatedAt,
	}
}
