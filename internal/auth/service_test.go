package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"expense-ledger/internal/storage"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestHashPassword(t *testing.T) {
	plain := "messi10"

	hash, err := HashPassword(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, hash)
	assert.True(t, CheckPassword(plain, hash))
	assert.False(t, CheckPassword("messi11", hash))

	again, err := HashPassword(plain)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestIdentity(t *testing.T) {
	assert.False(t, Anonymous().Authenticated())
	assert.True(t, Identity{UserID: 3, Username: "carol"}.Authenticated())
}

// ServiceTestSuite exercises registration, login and sessions against SQLite.
type ServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	db    *storage.DB
	svc   *Service
	clock time.Time
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	db, err := storage.Open(suite.ctx, ":memory:")
	require.NoError(suite.T(), err)
	suite.db = db

	logger, _ := test.NewNullLogger()
	suite.svc = NewService(db, 24*time.Hour, logger)
	suite.clock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	suite.svc.now = func() time.Time { return suite.clock }
}

func (suite *ServiceTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *ServiceTestSuite) TestRegisterStoresHashOnly() {
	user, err := suite.svc.Register(suite.ctx, "  alice ", "pw1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", user.Username)
	assert.NotEqual(suite.T(), "pw1", user.PasswordHash)
	assert.True(suite.T(), CheckPassword("pw1", user.PasswordHash))
}

func (suite *ServiceTestSuite) TestRegisterDuplicateLeavesStoreUnchanged() {
	first, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)

	for _, name := range []string{"alice", " alice "} {
		_, err = suite.svc.Register(suite.ctx, name, "other")
		assert.ErrorIs(suite.T(), err, ErrDuplicateUsername)
	}

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)

	stored, err := suite.db.GetUserByUsername(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.PasswordHash, stored.PasswordHash, "original credentials must survive")
}

func (suite *ServiceTestSuite) TestRegisterRequiresBothFields() {
	for _, tc := range []struct{ user, pass string }{{"", "pw"}, {"   ", "pw"}, {"alice", ""}} {
		_, err := suite.svc.Register(suite.ctx, tc.user, tc.pass)
		assert.ErrorIs(suite.T(), err, ErrMissingCredentials)
	}
}

func (suite *ServiceTestSuite) TestAuthenticate() {
	user, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)

	id, err := suite.svc.Authenticate(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), Identity{UserID: user.ID, Username: "alice"}, id)
}

func (suite *ServiceTestSuite) TestAuthenticateFailuresAreIndistinguishable() {
	_, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)

	_, wrongPassword := suite.svc.Authenticate(suite.ctx, "alice", "nope")
	_, unknownUser := suite.svc.Authenticate(suite.ctx, "mallory", "pw1")

	assert.ErrorIs(suite.T(), wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(suite.T(), unknownUser, ErrInvalidCredentials)
	assert.Equal(suite.T(), wrongPassword.Error(), unknownUser.Error())
}

func (suite *ServiceTestSuite) TestSessionLifecycle() {
	_, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	id, err := suite.svc.Authenticate(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)

	token, expiresAt, err := suite.svc.StartSession(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.clock.Add(24*time.Hour), expiresAt)

	resolved, renewed, err := suite.svc.ResolveSession(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, resolved)
	assert.True(suite.T(), renewed.IsZero(), "fresh sessions are not renewed")

	require.NoError(suite.T(), suite.svc.EndSession(suite.ctx, token))
	_, _, err = suite.svc.ResolveSession(suite.ctx, token)
	assert.ErrorIs(suite.T(), err, ErrNoSession)
}

func (suite *ServiceTestSuite) TestSessionRenewedPastHalfway() {
	_, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	id, err := suite.svc.Authenticate(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	token, _, err := suite.svc.StartSession(suite.ctx, id)
	require.NoError(suite.T(), err)

	suite.clock = suite.clock.Add(13 * time.Hour)
	_, renewed, err := suite.svc.ResolveSession(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.clock.Add(24*time.Hour), renewed)

	suite.clock = suite.clock.Add(20 * time.Hour)
	_, _, err = suite.svc.ResolveSession(suite.ctx, token)
	assert.NoError(suite.T(), err, "renewed session must outlive the original expiry")
}

func (suite *ServiceTestSuite) TestExpiredSessionAndSweep() {
	_, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	id, err := suite.svc.Authenticate(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	token, _, err := suite.svc.StartSession(suite.ctx, id)
	require.NoError(suite.T(), err)

	suite.clock = suite.clock.Add(25 * time.Hour)
	_, _, err = suite.svc.ResolveSession(suite.ctx, token)
	assert.ErrorIs(suite.T(), err, ErrNoSession)

	require.NoError(suite.T(), suite.svc.SweepExpiredSessions(suite.ctx))
	removed, err := suite.db.CleanExpiredSessions(suite.ctx, suite.clock)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), removed, "sweep should already have removed the session")
}

func (suite *ServiceTestSuite) TestStartSessionRequiresIdentity() {
	_, _, err := suite.svc.StartSession(suite.ctx, Anonymous())
	assert.ErrorIs(suite.T(), err, ErrNoSession)

	_, _, err = suite.svc.ResolveSession(suite.ctx, "")
	assert.ErrorIs(suite.T(), err, ErrNoSession)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
