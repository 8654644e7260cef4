package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", Expiry: time.Hour, Issuer: "edtech-checkout"})

	issued, err := m.Issue(7, "a@b.co", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	claims, err := m.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "a@b.co", claims.Email)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Equal(t, issued.JTI, claims.ID)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", Expiry: time.Hour, Issuer: "edtech-checkout"})
	other := NewJWTManager(JWTConfig{Secret: "other", Expiry: time.Hour, Issuer: "edtech-checkout"})

	issued, err := other.Issue(1, "a@b.co", 0)
	require.NoError(t, err)
	_, err = m.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	issued, err = m.Issue(1, "a@b.co", 0)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("12345", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(hash, "correct horse"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong horse"), ErrPasswordMismatch)
}
