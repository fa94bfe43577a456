package usecase

import (
	"context"
	"testing"
	"time"

	"account-service/internal/data/entity"
	"account-service/pkg/password"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userFixture struct {
	service UserService
	repo    *fakeUserRepo
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	repo := newFakeUserRepo()
	return &userFixture{
		service: NewUserService(repo, password.NewHasher(4), zap.NewNop()),
		repo:    repo,
	}
}

func (f *userFixture) seedUser(t *testing.T, email, plaintext string) *entity.User {
	t.Helper()

	hash, err := password.NewHasher(4).Hash(context.Background(), plaintext)
	require.NoError(t, err)

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         "Carol",
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		Verified:     true,
	}
	require.NoError(t, f.repo.Create(context.Background(), user))
	return user
}

func TestMe(t *testing.T) {
	f := newUserFixture(t)
	user := f.seedUser(t, "carol@example.com", "password123")

	resp, err := f.service.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), resp.ID)
	assert.Equal(t, "carol@example.com", resp.Email)

	_, err = f.service.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListClampsPagination(t *testing.T) {
	f := newUserFixture(t)
	for i := 0; i < 3; i++ {
		f.seedUser(t, uuid.NewString()+"@example.com", "password123")
	}

	resp, err := f.service.List(context.Background(), -5, 999)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, int64(3), resp.Results)
	assert.Len(t, resp.Users, 3)
}

func TestUpdateName(t *testing.T) {
	f := newUserFixture(t)
	user := f.seedUser(t, "carol@example.com", "password123")

	resp, err := f.service.UpdateName(context.Background(), user.ID, "Caroline")
	require.NoError(t, err)
	assert.Equal(t, "Caroline", resp.Name)
}

func TestUpdateRole(t *testing.T) {
	f := newUserFixture(t)
	user := f.seedUser(t, "carol@example.com", "password123")

	resp, err := f.service.UpdateRole(context.Background(), user.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, resp.Role)

	_, err = f.service.UpdateRole(context.Background(), user.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.service.UpdateRole(context.Background(), uuid.New(), "admin")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	f := newUserFixture(t)
	user := f.seedUser(t, "carol@example.com", "password123")

	err := f.service.UpdatePassword(context.Background(), user.ID, "wrong-old", "new-password-456")
	assert.ErrorIs(t, err, ErrWrongOldPassword)

	err = f.service.UpdatePassword(context.Background(), user.ID, "password123", "new-password-456")
	require.NoError(t, err)

	// The stored hash now matches only the new password.
	stored, err := f.repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	ok, err := password.NewHasher(4).Compare(context.Background(), "new-password-456", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
