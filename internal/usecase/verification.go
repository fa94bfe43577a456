package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerificationManager issues, validates and consumes the one-time tokens used
// for email verification and password reset. A token lives on the user row;
// issuing overwrites any prior token, consuming clears it atomically together
// with the action it authorizes.
type VerificationManager struct {
	users repository.UserRepository
	ttl   time.Duration
	log   *zap.Logger
}

func NewVerificationManager(users repository.UserRepository, ttlMinutes int, log *zap.Logger) *VerificationManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 30
	}
	return &VerificationManager{
		users: users,
		ttl:   time.Duration(ttlMinutes) * time.Minute,
		log:   log,
	}
}

// Generate produces a fresh opaque token and its expiry. uuid v4 is backed by
// crypto/rand; collisions are negligible.
func (m *VerificationManager) Generate() (string, time.Time) {
	return uuid.NewString(), time.Now().Add(m.ttl)
}

// Reissue overwrites the user's verification token with a fresh one,
// invalidating whatever was there before.
func (m *VerificationManager) Reissue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	token, expiresAt := m.Generate()

	if err := m.users.SetVerificationToken(ctx, userID, token, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("reissue verification token: %w", err)
	}

	m.log.Info("Verification token reissued",
		zap.String("user_id", userID.String()),
		zap.Time("expires_at", expiresAt))

	return token, expiresAt, nil
}

// Validate resolves the token to its owning user. An expired token is
// reported as such but stays stored; only consumption or reissue clears it.
func (m *VerificationManager) Validate(ctx context.Context, token string) (*entity.User, error) {
	user, err := m.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("look up verification token: %w", err)
	}
	if user == nil {
		return nil, ErrTokenNotFound
	}

	if user.TokenExpiresAt == nil {
		return nil, ErrTokenNotFound
	}
	if time.Now().After(*user.TokenExpiresAt) {
		return nil, ErrTokenExpired
	}

	return user, nil
}

// Consume marks the owning user verified and clears the token in one
// conditional update. Under concurrent attempts exactly one caller succeeds;
// every other caller gets ErrTokenNotFound, even if it validated the token
// moments earlier. An expired token can never be consumed.
func (m *VerificationManager) Consume(ctx context.Context, token string) error {
	err := m.users.ConsumeVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrNoActiveToken) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}
	return nil
}

// ConsumePasswordReset replaces the password hash and clears the token in the
// same atomic step. Same race semantics as Consume.
func (m *VerificationManager) ConsumePasswordReset(ctx context.Context, token, newHash string) error {
	err := m.users.ResetPasswordByToken(ctx, token, newHash)
	if errors.Is(err, repository.ErrNoActiveToken) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("consume password reset token: %w", err)
	}
	return nil
}
