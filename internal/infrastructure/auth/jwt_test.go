package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/actor"
)

func freshClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func TestValidateToken(t *testing.T) {
	v := NewJWTValidator("test-secret", "stockledger")

	token, err := v.IssueToken(actor.Actor{ID: "user-1", Name: "Test User"}, freshClaims())
	require.NoError(t, err)

	a, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", a.ID)
	assert.Equal(t, "Test User", a.Name)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTValidator("secret-a", "")
	token, err := issuer.IssueToken(actor.Actor{ID: "user-1"}, freshClaims())
	require.NoError(t, err)

	_, err = NewJWTValidator("secret-b", "").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	v := NewJWTValidator("test-secret", "")

	token, err := v.IssueToken(actor.Actor{ID: "user-1"}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTValidator("test-secret", "someone-else")
	token, err := other.IssueToken(actor.Actor{ID: "user-1"}, freshClaims())
	require.NoError(t, err)

	_, err = NewJWTValidator("test-secret", "stockledger").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	v := NewJWTValidator("test-secret", "")

	token, err := v.IssueToken(actor.Actor{}, freshClaims())
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	v := NewJWTValidator("test-secret", "")
	_, err := v.ValidateToken("not.a.token")
	assert.Error(t, err)
}
