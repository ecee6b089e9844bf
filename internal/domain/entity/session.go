package entity

import "github.com/google/uuid"

// Session is the authenticated caller an appointment store is bound to
type Session struct {
	UserID  uuid.UUID
	Email   string
	RoleID  int
	TokenID string
}

// Valid reports whether the session identifies a user
func (s *Session) Valid() bool {
	return s != nil && s.UserID != uuid.Nil
}
