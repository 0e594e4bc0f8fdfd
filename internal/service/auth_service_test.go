package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type fakeAuthRepo struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	nextID  int64
	revoked []string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}, tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeAuthRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) HasAny(_ context.Context) (bool, error) {
	return len(f.users) > 0, nil
}

func (f *fakeAuthRepo) Create(_ context.Context, user *models.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.Username] = user
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := f.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	for _, rt := range f.tokens {
		if rt.ID == id {
			rt.Revoked = true
		}
	}
	f.revoked = append(f.revoked, id)
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID int64) error {
	for _, rt := range f.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "courselog",
	}
}

func seedUser(t *testing.T, repo *fakeAuthRepo, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRegisterFirstUser(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{Username: "teacher", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "teacher", info.Username)
	assert.NotZero(t, info.ID)
}

func TestRegisterClosesAfterFirstUser(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "teacher", "password123")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "intruder", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccessIssuesValidToken(t *testing.T) {
	repo := newFakeAuthRepo()
	user := seedUser(t, repo, "teacher", "password123")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "teacher", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "teacher", claims.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "teacher", "password123")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "teacher", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUserMatchesWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "teacher", "password123")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "teacher", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newFakeAuthRepo(), nil, nil, testAuthConfig())
	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "teacher", "password123")
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "teacher", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, 999)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, 1))
}
