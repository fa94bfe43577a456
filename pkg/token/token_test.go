package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-signing-secret")

func TestCreateAndValidate(t *testing.T) {
	tokenString, err := Create("user-123", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	subject, err := Validate(tokenString, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestValidateExpired(t *testing.T) {
	tokenString, err := Create("user-123", secret, -time.Minute)
	require.NoError(t, err)

	_, err = Validate(tokenString, secret)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	tokenString, err := Create("user-123", secret, time.Hour)
	require.NoError(t, err)

	_, err = Validate(tokenString, []byte("some-other-secret"))
	assert.ErrorIs(t, err, ErrBadSignature)
}

// A tampered token must be rejected for its signature even when it is also
// expired; the claimed expiry of an unverified token is never trusted.
func TestValidateWrongSecretPrecedesExpiry(t *testing.T) {
	tokenString, err := Create("user-123", secret, -time.Minute)
	require.NoError(t, err)

	_, err = Validate(tokenString, []byte("some-other-secret"))
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestValidateMalformed(t *testing.T) {
	for _, tokenString := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := Validate(tokenString, secret)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", tokenString)
	}
}

func TestValidateNoneAlgorithmRejected(t *testing.T) {
	// Unsigned token with alg=none: header {"alg":"none","typ":"JWT"},
	// payload {"sub":"user-123","exp":9999999999}.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiJ1c2VyLTEyMyIsImV4cCI6OTk5OTk5OTk5OX0."

	_, err := Validate(unsigned, secret)
	require.Error(t, err)
}
