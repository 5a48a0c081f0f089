package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(DefaultJWTConfig("test-secret", "stockshift-test"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateAccessToken("operator-1", "Jordan Reyes", []string{"operator", "auditor"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	actor, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", actor.ActorID)
	assert.Equal(t, "Jordan Reyes", actor.Name)
	assert.Equal(t, []string{"operator", "auditor"}, actor.Roles)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.GenerateAccessToken("operator-1", "Jordan Reyes", nil)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("different-secret", "stockshift-test"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestService()

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret", "stockshift-test")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("operator-1", "Jordan Reyes", nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsUnsignedAlg(t *testing.T) {
	svc := newTestService()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ActorID: "operator-1",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}
