package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"account-service/internal/dto/request"
	"account-service/internal/usecase"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	config  *utils.Config
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, config *utils.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		log:     log,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.Register(r.Context(), &req); err != nil {
		h.writeError(w, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful. Please verify your email within 30 minutes.", nil)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "login")
		return
	}

	http.SetCookie(w, h.sessionCookie(resp.Token))
	utils.ResponseSuccess(w, "Login successful", resp)
}

// VerifyEmail handles GET /api/auth/verify?token=
// On success it sets the session cookie and redirects to the frontend.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	verificationToken := r.URL.Query().Get("token")
	if verificationToken == "" {
		utils.ResponseBadRequest(w, "Token is required", nil)
		return
	}

	resp, err := h.service.VerifyEmail(r.Context(), verificationToken)
	if err != nil {
		h.writeError(w, err, "verify email")
		return
	}

	http.SetCookie(w, h.sessionCookie(resp.Token))
	http.Redirect(w, r, h.config.App.FrontendURL+"/settings", http.StatusFound)
}

// ResendVerification handles POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req request.ResendVerificationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		h.writeError(w, err, "resend verification")
		return
	}

	utils.ResponseSuccess(w, "Verification email has been resent. Please verify within 30 minutes.", nil)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeError(w, err, "forgot password")
		return
	}

	utils.ResponseSuccess(w, "Password reset link has been sent to your email.", nil)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		h.writeError(w, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password has been successfully reset.", nil)
}

// sessionCookie builds the stateless session cookie. Max age tracks the
// token's own TTL so the browser drops it roughly when it expires.
func (h *AuthHandler) sessionCookie(sessionToken string) *http.Cookie {
	return &http.Cookie{
		Name:     "token",
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   h.config.JWT.TTLMinutes * 60,
		HttpOnly: true,
	}
}

// writeError maps service sentinels onto HTTP statuses.
func (h *AuthHandler) writeError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrEmailTaken):
		h.log.Warn(operation+" failed - duplicate email", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrWrongCredentials):
		h.log.Warn(operation+" failed - wrong credentials", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrTokenNotFound):
		h.log.Warn(operation+" failed - invalid token", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrTokenExpired),
		errors.Is(err, usecase.ErrEmailNotFound),
		errors.Is(err, usecase.ErrAlreadyVerified):
		h.log.Warn(operation+" failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
