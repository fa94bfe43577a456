package wire

import (
	"account-service/internal/adaptor"
	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/pkg/middleware"
	"account-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	authenticate := middleware.Authenticate(repo.User, []byte(config.JWT.Secret), log)
	adminOnly := middleware.RequireRole(log, entity.RoleAdmin)

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", userHandler.Me)
		r.Put("/name", userHandler.UpdateName)
		r.Put("/password", userHandler.UpdatePassword)

		// Admin-only
		r.With(adminOnly).Get("/", userHandler.List)
		r.With(adminOnly).Put("/role/{id}", userHandler.UpdateRole)
	})
}
