package services

import "time"

// Session identifies the signed-in user of a request. It is created by
// UserService.Authenticate and passed to every service call.
type Session struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

func (s Session) Valid(now time.Time) bool {
	return s.UserID != 0 && now.Before(s.ExpiresAt)
}
