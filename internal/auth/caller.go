package auth

import "deediq/internal/apperror"

// Caller is the identity an operation runs as. The zero value is an
// anonymous caller.
type Caller struct {
	UserID   string
	Username string
}

var Anonymous = Caller{}

func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// Require fails with an Auth error for anonymous callers.
func (c Caller) Require() error {
	if !c.Authenticated() {
		return apperror.Unauthorized("Authentication required")
	}
	return nil
}
