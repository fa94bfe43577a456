package usecase

// Notifier delivers account emails. All sends are best-effort: services fire
// them from their own goroutine and only log failures.
type Notifier interface {
	SendVerificationEmail(email, name, token string) error
	SendWelcomeEmail(email, name string) error
	SendPasswordResetEmail(email, resetLink, name string) error
}
