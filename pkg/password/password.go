package password

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrMalformedDigest is returned by Compare when the stored digest is not a
// bcrypt hash. A wrong password is not an error.
var ErrMalformedDigest = errors.New("stored password digest is malformed")

// Hasher wraps bcrypt behind a weighted semaphore. Hashing is CPU-bound;
// the bound keeps a burst of logins from starving the rest of the server.
type Hasher struct {
	sem  *semaphore.Weighted
	cost int
}

func NewHasher(maxConcurrent int) *Hasher {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Hasher{
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
		cost: bcrypt.DefaultCost,
	}
}

// Hash produces a salted, self-contained digest safe to store directly.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(digest), nil
}

// Compare checks plaintext against a stored digest in constant time.
// Returns (false, nil) for a wrong password and ErrMalformedDigest when the
// digest is not in bcrypt format.
func (h *Hasher) Compare(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
}
