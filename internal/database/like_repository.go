package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyLiked is returned when a like already exists for the pair.
	ErrAlreadyLiked = errors.New("event already liked")
	// ErrLikeNotFound is returned when unliking a pair that was never liked.
	ErrLikeNotFound = errors.New("like not found")
)

// LikeRepository is the persistent like store: the single source of truth
// for which events a user has liked. Likes are mutated only through
// explicit Like/Unlike calls, never inferred.
type LikeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a like repository.
func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Like records a like. Liking the same event twice is an error so callers
// can map it to a client fault rather than silently succeed.
func (r *LikeRepository) Like(userID, eventID string) error {
	_, err := r.db.Exec(
		`INSERT INTO event_likes (user_id, event_id) VALUES (?, ?)`,
		userID, eventID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyLiked
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Unlike removes a like, failing with ErrLikeNotFound when none exists.
func (r *LikeRepository) Unlike(userID, eventID string) error {
	res, err := r.db.Exec(
		`DELETE FROM event_likes WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete like rows: %w", err)
	}
	if n == 0 {
		return ErrLikeNotFound
	}
	return nil
}

// IsLiked reports whether the user has liked the event.
func (r *LikeRepository) IsLiked(userID, eventID string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM event_likes WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query like: %w", err)
	}
	return true, nil
}

// List returns the user's liked event ids, oldest like first.
func (r *LikeRepository) List(userID string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT event_id FROM event_likes WHERE user_id = ? ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
