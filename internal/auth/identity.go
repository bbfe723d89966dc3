package auth

import "expense-ledger/internal/models"

// Identity is the actor behind a request. The zero value is anonymous.
type Identity struct {
	UserID   int64
	Username string
}

// Anonymous returns the identity of a request with no valid session.
func Anonymous() Identity {
	return Identity{}
}

// IdentityOf returns the identity of an authenticated user.
func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}

// Authenticated reports whether the identity belongs to a logged-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != 0
}
