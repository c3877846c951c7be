package auth

import (
	"net/http"

	"seoulfest/models"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyUserID is the key for the user ID in the context
	ContextKeyUserID ContextKey = "userID"
	// ContextKeySession is the key for the session in the context
	ContextKeySession ContextKey = "session"
)

// GetUserID retrieves the authenticated user ID from the request context.
func GetUserID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}

// GetSession retrieves the full session from the request context.
func GetSession(r *http.Request) (models.Session, bool) {
	s, ok := r.Context().Value(ContextKeySession).(models.Session)
	return s, ok
}
