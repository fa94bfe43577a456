package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"

	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory UserRepository. Its token operations implement
// the same conditional-update contract as the SQL repository so the race
// semantics can be exercised without a database.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func copyUser(u *entity.User) *entity.User {
	clone := *u
	if u.VerificationToken != nil {
		token := *u.VerificationToken
		clone.VerificationToken = &token
	}
	if u.TokenExpiresAt != nil {
		expires := *u.TokenExpiresAt
		clone.TokenExpiresAt = &expires
	}
	return &clone
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}

	f.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(user), nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return copyUser(user), nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			return copyUser(user), nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var users []*entity.User
	for _, user := range f.users {
		users = append(users, copyUser(user))
	}
	if offset > len(users) {
		offset = len(users)
	}
	users = users[offset:]
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeUserRepo) CountAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) SetVerificationToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNoActiveToken
	}
	user.VerificationToken = &token
	user.TokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserRepo) ConsumeVerificationToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.VerificationToken != nil && *user.VerificationToken == token &&
			user.TokenExpiresAt != nil && user.TokenExpiresAt.After(time.Now()) {
			user.Verified = true
			user.VerificationToken = nil
			user.TokenExpiresAt = nil
			return nil
		}
	}
	return repository.ErrNoActiveToken
}

func (f *fakeUserRepo) ResetPasswordByToken(_ context.Context, token, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.VerificationToken != nil && *user.VerificationToken == token &&
			user.TokenExpiresAt != nil && user.TokenExpiresAt.After(time.Now()) {
			user.PasswordHash = newHash
			user.VerificationToken = nil
			user.TokenExpiresAt = nil
			return nil
		}
	}
	return repository.ErrNoActiveToken
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID uuid.UUID, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNoActiveToken
	}
	user.PasswordHash = newHash
	return nil
}

func (f *fakeUserRepo) UpdateName(_ context.Context, userID uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNoActiveToken
	}
	user.Name = name
	return nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, userID uuid.UUID, role entity.UserRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNoActiveToken
	}
	user.Role = role
	return nil
}

// fakeNotifier records sends without doing any I/O.
type fakeNotifier struct {
	mu           sync.Mutex
	verification []string // tokens, in send order
	welcome      []string // emails
	resetLinks   []string
}

func (n *fakeNotifier) SendVerificationEmail(_, _, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verification = append(n.verification, token)
	return nil
}

func (n *fakeNotifier) SendWelcomeEmail(email, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, email)
	return nil
}

func (n *fakeNotifier) SendPasswordResetEmail(_, resetLink, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetLinks = append(n.resetLinks, resetLink)
	return nil
}

func (n *fakeNotifier) verificationCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.verification)
}

func (n *fakeNotifier) welcomeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.welcome)
}

func (n *fakeNotifier) resetCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.resetLinks)
}
