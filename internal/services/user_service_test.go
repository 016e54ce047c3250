package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users []models.User
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uint(len(r.users) + 1)
	r.users = append(r.users, *u)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeCategoryRepo struct {
	byUser map[uint][]models.Category
}

func (r *fakeCategoryRepo) List(ctx context.Context, userID uint) ([]models.Category, error) {
	return r.byUser[userID], nil
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	if r.byUser == nil {
		r.byUser = map[uint][]models.Category{}
	}
	for _, existing := range r.byUser[c.UserID] {
		if existing.Name == c.Name {
			*c = existing
			return nil
		}
	}
	c.ID = uint(len(r.byUser[c.UserID]) + 1)
	r.byUser[c.UserID] = append(r.byUser[c.UserID], *c)
	return nil
}

func newAuthFixture() (UserService, *memTokens, *fakeCategoryRepo) {
	tokens := &memTokens{}
	cats := &fakeCategoryRepo{}
	svc := NewUserService(&fakeUserRepo{}, tokens, NewCategoryService(cats, nil, nil, Options{}), "test-secret", time.Hour)
	return svc, tokens, cats
}

func TestSignUpSignInAndAuthenticate(t *testing.T) {
	svc, _, cats := newAuthFixture()
	ctx := context.Background()

	res, err := svc.SignUp(ctx, " Owner@Shop.com ", "secret1", "Owner")
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.com", res.User.Email)
	assert.NotEmpty(t, res.Token)
	assert.Len(t, cats.byUser[res.User.ID], len(DefaultCategories))

	sess, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, sess.UserID)
	assert.NotEmpty(t, sess.TokenID)

	in, err := svc.SignIn(ctx, "OWNER@shop.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, res.Token, in.Token)

	user, err := svc.GetUser(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Owner", user.Name)
}

func TestSignUpRejections(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "secret1", "")
	assert.True(t, IsValidation(err))
	_, err = svc.SignUp(ctx, "a@b.com", "12345", "")
	assert.True(t, IsValidation(err))

	_, err = svc.SignUp(ctx, "a@b.com", "123456", "")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "A@B.com", "123456", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "a@b.com", "123456", "")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "a@b.com", "654321")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "missing@b.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	res, err := svc.SignUp(ctx, "a@b.com", "123456", "")
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":    "",
		"garbage":  "abc.def.ghi",
		"tampered": res.Token[:len(res.Token)-2] + "xx",
	} {
		_, err := svc.Authenticate(ctx, raw)
		assert.ErrorIs(t, err, ErrUnauthorized, name)
	}

	other := NewUserService(&fakeUserRepo{}, nil, nil, "other-secret", time.Hour)
	_, err = other.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized, "signed with another secret")
}

func TestSignOutRevokesToken(t *testing.T) {
	svc, tokens, _ := newAuthFixture()
	ctx := context.Background()
	res, err := svc.SignUp(ctx, "a@b.com", "123456", "")
	require.NoError(t, err)
	sess, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, sess))
	ttl, ok := tokens.revoked[sess.TokenID]
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnsureUser(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	u, created, err := svc.EnsureUser(ctx, "owner@shop.com", "secret1", "Owner")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.EnsureUser(ctx, "owner@shop.com", "other-password", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}
