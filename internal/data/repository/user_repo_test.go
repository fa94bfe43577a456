package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"account-service/internal/data/entity"
)

func newTestRepo(t *testing.T) (UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	return NewUserRepository(mock, zap.NewNop()), mock
}

func testUser() *entity.User {
	now := time.Now()
	token := uuid.NewString()
	expires := now.Add(30 * time.Minute)

	return &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:              "Alice",
		Email:             "alice@example.com",
		PasswordHash:      "$2a$10$fakefakefakefakefakefake",
		Role:              entity.RoleUser,
		Verified:          false,
		VerificationToken: &token,
		TokenExpiresAt:    &expires,
	}
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, user *entity.User)
		wantErr   error
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, user *entity.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID, user.Name, user.Email, user.PasswordHash,
						user.Role, user.Verified, user.VerificationToken,
						user.TokenExpiresAt, user.CreatedAt, user.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email maps to ErrDuplicateEmail",
			setupMock: func(mock pgxmock.PgxPoolIface, user *entity.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID, user.Name, user.Email, user.PasswordHash,
						user.Role, user.Verified, user.VerificationToken,
						user.TokenExpiresAt, user.CreatedAt, user.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: ErrDuplicateEmail,
		},
		{
			name: "other database error is wrapped",
			setupMock: func(mock pgxmock.PgxPoolIface, user *entity.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID, user.Name, user.Email, user.PasswordHash,
						user.Role, user.Verified, user.VerificationToken,
						user.TokenExpiresAt, user.CreatedAt, user.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepo(t)
			user := testUser()
			tt.setupMock(mock, user)

			err := repo.Create(context.Background(), user)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrDuplicateEmail) {
					assert.ErrorIs(t, err, ErrDuplicateEmail)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newTestRepo(t)
	user := testUser()

	rows := pgxmock.NewRows([]string{
		"id", "name", "email", "password", "role", "verified",
		"verification_token", "token_expires_at", "created_at", "updated_at",
	}).AddRow(user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.Verified, user.VerificationToken, user.TokenExpiresAt,
		user.CreatedAt, user.UpdatedAt)

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("ALICE@example.com").
		WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NoRows(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("missing@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "password", "role", "verified",
			"verification_token", "token_expires_at", "created_at", "updated_at",
		}))

	got, err := repo.FindByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ConsumeVerificationToken(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "active token is consumed",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs("tok-1").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			// Second consumer, consumed/overwritten token, or expired token:
			// the conditional update matches nothing.
			name: "no matching row returns ErrNoActiveToken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs("tok-1").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: ErrNoActiveToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestRepo(t)
			tt.setupMock(mock)

			err := repo.ConsumeVerificationToken(context.Background(), "tok-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ResetPasswordByToken(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("tok-2", "$2a$10$newhash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.ResetPasswordByToken(context.Background(), "tok-2", "$2a$10$newhash")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ResetPasswordByToken_AlreadyConsumed(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("tok-2", "$2a$10$newhash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ResetPasswordByToken(context.Background(), "tok-2", "$2a$10$newhash")
	assert.ErrorIs(t, err, ErrNoActiveToken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetVerificationToken(t *testing.T) {
	repo, mock := newTestRepo(t)
	userID := uuid.New()
	expires := time.Now().Add(30 * time.Minute)

	mock.ExpectExec(`UPDATE users`).
		WithArgs(userID, "fresh-token", expires).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetVerificationToken(context.Background(), userID, "fresh-token", expires)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
