package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/data/entity"
	"account-service/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateEmail maps the store's unique-violation on users.email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNoActiveToken means the conditional token update matched no row:
	// the token was never issued, already consumed, overwritten, or expired.
	ErrNoActiveToken = errors.New("no active verification token")
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context) (int64, error)

	// SetVerificationToken overwrites the user's verification token; any
	// prior token is invalidated by the overwrite.
	SetVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error

	// ConsumeVerificationToken atomically marks the owning user verified and
	// clears the token, but only while the token is still active. Exactly one
	// concurrent caller can win; the rest get ErrNoActiveToken.
	ConsumeVerificationToken(ctx context.Context, token string) error

	// ResetPasswordByToken atomically replaces the password hash and clears
	// the token in a single conditional update, same race semantics as
	// ConsumeVerificationToken.
	ResetPasswordByToken(ctx context.Context, token, newHash string) error

	UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error
	UpdateName(ctx context.Context, userID uuid.UUID, name string) error
	UpdateRole(ctx context.Context, userID uuid.UUID, role entity.UserRole) error
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, name, email, password, role, verified,
		       verification_token, token_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Verified,
		&user.VerificationToken,
		&user.TokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record. A unique violation on the email index is
// reported as ErrDuplicateEmail.
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, email, password, role, verified,
		                   verification_token, token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Verified,
		user.VerificationToken,
		user.TokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateEmail
		}

		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}

	return user, nil
}

func (ur *userRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE verification_token = $1
	`

	user, err := scanUser(ur.db.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by verification token", zap.Error(err))
		return nil, fmt.Errorf("find user by verification token: %w", err)
	}

	return user, nil
}

func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := ur.db.Query(ctx, query, limit, offset)
	if err != nil {
		ur.log.Error("Failed to list users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users`

	var count int64
	err := ur.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		ur.log.Error("Failed to count users", zap.Error(err))
		return 0, fmt.Errorf("count all users: %w", err)
	}

	return count, nil
}

func (ur *userRepository) SetVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET verification_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		ur.log.Error("Failed to set verification token",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("set verification token for %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID.String())
	}

	return nil
}

func (ur *userRepository) ConsumeVerificationToken(ctx context.Context, token string) error {
	// Single conditional update: the WHERE clause is the whole race story.
	// The expiry guard also closes the expired->consumed transition at the
	// store, not just in the caller's validate step.
	query := `
		UPDATE users
		SET verified = true, verification_token = NULL,
		    token_expires_at = NULL, updated_at = NOW()
		WHERE verification_token = $1 AND token_expires_at > NOW()
	`

	result, err := ur.db.Exec(ctx, query, token)
	if err != nil {
		ur.log.Error("Failed to consume verification token", zap.Error(err))
		return fmt.Errorf("consume verification token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoActiveToken
	}

	return nil
}

func (ur *userRepository) ResetPasswordByToken(ctx context.Context, token, newHash string) error {
	query := `
		UPDATE users
		SET password = $2, verification_token = NULL,
		    token_expires_at = NULL, updated_at = NOW()
		WHERE verification_token = $1 AND token_expires_at > NOW()
	`

	result, err := ur.db.Exec(ctx, query, token, newHash)
	if err != nil {
		ur.log.Error("Failed to reset password by token", zap.Error(err))
		return fmt.Errorf("reset password by token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoActiveToken
	}

	return nil
}

func (ur *userRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error {
	query := `
		UPDATE users
		SET password = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query, userID, newHash)
	if err != nil {
		ur.log.Error("Failed to update password",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("update password for %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID.String())
	}

	return nil
}

func (ur *userRepository) UpdateName(ctx context.Context, userID uuid.UUID, name string) error {
	query := `
		UPDATE users
		SET name = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query, userID, name)
	if err != nil {
		ur.log.Error("Failed to update name",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("update name for %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID.String())
	}

	return nil
}

func (ur *userRepository) UpdateRole(ctx context.Context, userID uuid.UUID, role entity.UserRole) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query, userID, role)
	if err != nil {
		ur.log.Error("Failed to update role",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)),
		)
		return fmt.Errorf("update role for %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID.String())
	}

	return nil
}
