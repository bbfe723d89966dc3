package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingCredentials is returned when the username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrDuplicateUsername is returned when registering a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials is returned for an unknown username and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNoSession is returned when a session token is unknown or expired.
	ErrNoSession = errors.New("no valid session")
)

// DefaultSessionDuration is how long sessions last (30 days).
const DefaultSessionDuration = 30 * 24 * time.Hour

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("expense-ledger/no-such-user"), bcrypt.DefaultCost)
	return h
})

// Service registers users, verifies credentials and manages sessions.
type Service struct {
	db         *storage.DB
	sessionTTL time.Duration
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewService creates a credential service backed by db.
func NewService(db *storage.DB, sessionTTL time.Duration, log logrus.FieldLogger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionDuration
	}
	return &Service{
		db:         db,
		sessionTTL: sessionTTL,
		log:        log.WithField("component", "auth"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SessionDuration returns the lifetime given to new and renewed sessions.
func (s *Service) SessionDuration() time.Duration {
	return s.sessionTTL
}

// Register creates an account storing only a salted hash of password.
// A taken username leaves the store unchanged and yields ErrDuplicateUsername.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.db.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetUserByUsername(ctx, username); err == nil {
			return ErrDuplicateUsername
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		user, err = q.CreateUser(ctx, username, hash)
		if errors.Is(err, storage.ErrDuplicateUsername) {
			return ErrDuplicateUsername
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("register %q: %w", username, err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Authenticate returns the identity behind username when password matches.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Anonymous(), ErrInvalidCredentials
	}

	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Anonymous(), fmt.Errorf("look up user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return Anonymous(), ErrInvalidCredentials
	}

	if !CheckPassword(password, user.PasswordHash) {
		return Anonymous(), ErrInvalidCredentials
	}
	return IdentityOf(user), nil
}

// StartSession opens a session for id and returns its token and expiry.
func (s *Service) StartSession(ctx context.Context, id Identity) (string, time.Time, error) {
	if !id.Authenticated() {
		return "", time.Time{}, ErrNoSession
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	err = s.db.CreateSession(ctx, models.Session{
		Token:        token,
		UserID:       id.UserID,
		ExpiresAt:    expiresAt,
		LastActivity: now,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, expiresAt, nil
}

// ResolveSession maps a session token to its identity. Sessions past the
// halfway point of their lifetime are renewed; renewedUntil is the new
// expiry in that case and zero otherwise.
func (s *Service) ResolveSession(ctx context.Context, token string) (id Identity, renewedUntil time.Time, err error) {
	if token == "" {
		return Anonymous(), time.Time{}, ErrNoSession
	}

	now := s.now()
	info, err := s.db.ValidateSessionWithInfo(ctx, token, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Anonymous(), time.Time{}, ErrNoSession
		}
		return Anonymous(), time.Time{}, fmt.Errorf("validate session: %w", err)
	}

	id = IdentityOf(info.User)
	if info.ExpiresAt.Sub(now) >= s.sessionTTL/2 {
		return id, time.Time{}, nil
	}

	newExpiry := now.Add(s.sessionTTL)
	if err := s.db.RenewSession(ctx, token, now, newExpiry); err != nil {
		// The current session is still valid; keep going without renewal.
		s.log.WithError(err).WithField("user_id", id.UserID).Warn("session renewal failed")
		return id, time.Time{}, nil
	}
	return id, newExpiry, nil
}

// EndSession deletes the session behind token.
func (s *Service) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SweepExpiredSessions removes every expired session.
func (s *Service) SweepExpiredSessions(ctx context.Context) error {
	n, err := s.db.CleanExpiredSessions(ctx, s.now())
	if err != nil {
		return fmt.Errorf("clean expired sessions: %w", err)
	}
	if n > 0 {
		s.log.WithField("removed", n).Debug("expired sessions swept")
	}
	return nil
}
