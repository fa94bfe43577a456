package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/internal/dto/request"
	"account-service/internal/dto/response"
	"account-service/pkg/password"
	"account-service/pkg/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) error
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	VerifyEmail(ctx context.Context, verificationToken string) (*response.AuthResponse, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type authService struct {
	users    repository.UserRepository
	hasher   *password.Hasher
	verifier *VerificationManager
	notifier Notifier
	config   *utils.Config
	log      *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	hasher *password.Hasher,
	verifier *VerificationManager,
	notifier Notifier,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		notifier: notifier,
		config:   config,
		log:      log,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Check email is not taken. The unique index is the real guard; this
	// lookup just gives most duplicates a friendlier early exit.
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return ErrEmailTaken
	}

	// 2. Hash password
	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}

	// 3. Issue verification token
	verificationToken, expiresAt := s.verifier.Generate()

	// 4. Create user (unverified, no session issued)
	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:              req.Name,
		Email:             email,
		PasswordHash:      hash,
		Role:              entity.RoleUser,
		Verified:          false,
		VerificationToken: &verificationToken,
		TokenExpiresAt:    &expiresAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost the race against a concurrent registration.
			return ErrEmailTaken
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("create user: %w", err)
	}

	// 5. Send verification email, fire-and-forget
	s.sendAsync("verification email", user.Email, func() error {
		return s.notifier.SendVerificationEmail(user.Email, user.Name, verificationToken)
	})

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Find user. Unknown email and wrong password collapse into one error.
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for login", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrWrongCredentials
	}

	// 2. Check password
	ok, err := s.hasher.Compare(ctx, req.Password, user.PasswordHash)
	if err != nil {
		s.log.Error("Failed to compare password",
			zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrWrongCredentials
	}

	// 3. Issue session token
	resp, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return resp, nil
}

func (s *authService) VerifyEmail(ctx context.Context, verificationToken string) (*response.AuthResponse, error) {
	// 1. Validate the token: unknown vs expired
	user, err := s.verifier.Validate(ctx, verificationToken)
	if err != nil {
		return nil, err
	}

	// 2. Consume: flips verified and clears the token in one atomic step.
	// A concurrent consumer may have beaten us here even though validation
	// just passed; the loser reports an invalid token.
	if err := s.verifier.Consume(ctx, verificationToken); err != nil {
		return nil, err
	}

	// 3. Welcome email, fire-and-forget
	s.sendAsync("welcome email", user.Email, func() error {
		return s.notifier.SendWelcomeEmail(user.Email, user.Name)
	})

	// 4. Log the user in
	resp, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	resp.Verified = true

	s.log.Info("Email verified",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return resp, nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for resend", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return ErrEmailNotFound
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	// Overwrites the old token; only the fresh one can be consumed now.
	verificationToken, _, err := s.verifier.Reissue(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to reissue verification token",
			zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("reissue token: %w", err)
	}

	s.sendAsync("verification email", user.Email, func() error {
		return s.notifier.SendVerificationEmail(user.Email, user.Name, verificationToken)
	})

	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for password reset", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		// Distinguishing response: reveals whether an email is registered.
		// Kept to match observed behavior; see DESIGN.md.
		return ErrEmailNotFound
	}

	resetToken, _, err := s.verifier.Reissue(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to issue reset token",
			zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("reissue token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.config.App.FrontendURL, resetToken)

	s.sendAsync("password reset email", user.Email, func() error {
		return s.notifier.SendPasswordResetEmail(user.Email, resetLink, user.Name)
	})

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	// 1. Validate the token so expiry gets its own error
	user, err := s.verifier.Validate(ctx, req.Token)
	if err != nil {
		return err
	}

	// 2. Hash the replacement password
	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		s.log.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}

	// 3. Atomically swap the hash and burn the token
	if err := s.verifier.ConsumePasswordReset(ctx, req.Token, hash); err != nil {
		return err
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// ==================== HELPERS ====================

func (s *authService) issueSession(user *entity.User) (*response.AuthResponse, error) {
	ttl := time.Duration(s.config.JWT.TTLMinutes) * time.Minute

	sessionToken, err := token.Create(user.ID.String(), []byte(s.config.JWT.Secret), ttl)
	if err != nil {
		s.log.Error("Failed to create session token",
			zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("create session token: %w", err)
	}

	return &response.AuthResponse{
		Token:     sessionToken,
		ExpiresAt: time.Now().Add(ttl),
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Verified:  user.Verified,
	}, nil
}

// sendAsync dispatches an email off the request path. Failures are logged and
// never retried or surfaced.
func (s *authService) sendAsync(kind, email string, send func() error) {
	go func() {
		if err := send(); err != nil {
			s.log.Error("Failed to send "+kind,
				zap.Error(err), zap.String("email", email))
		}
	}()
}
