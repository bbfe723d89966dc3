package models

import "time"

// DateLayout is the calendar format expense dates are submitted and stored in.
const DateLayout = "2006-01-02"

// Expense represents a financial expense record owned by a single user.
type Expense struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	UserID      int64     `json:"user_id"`
}

// OwnedBy reports whether userID owns the expense.
func (e Expense) OwnedBy(userID int64) bool {
	return userID != 0 && e.UserID == userID
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a user session.
type Session struct {
	Token        string    `json:"token"`
	UserID       int64     `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}
