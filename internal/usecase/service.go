package usecase

import (
	"account-service/internal/data/repository"
	"account-service/pkg/password"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth AuthService
	User UserService
}

func NewService(
	repo *repository.Repository,
	hasher *password.Hasher,
	notifier Notifier,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	verifier := NewVerificationManager(repo.User, config.Verification.TTLMinutes, log)

	return &Service{
		Auth: NewAuthService(repo.User, hasher, verifier, notifier, config, log),
		User: NewUserService(repo.User, hasher, log),
	}
}
