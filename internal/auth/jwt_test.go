package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret", "mall-refund")

	token, err := svc.GenerateToken(42, "ops-admin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.AdminID)
	require.Equal(t, "ops-admin", claims.Username)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "mall-refund", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService("secret-a", "mall-refund")
	token, err := svc.GenerateToken(1, "admin", "admin")
	require.NoError(t, err)

	other := NewJWTService("secret-b", "mall-refund")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService("secret", "mall-refund")
	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
}

func TestExtractTokenFromBearer(t *testing.T) {
	require.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	require.Equal(t, "abc", ExtractTokenFromBearer("bearer abc"))
	require.Equal(t, "", ExtractTokenFromBearer("abc"))
	require.Equal(t, "", ExtractTokenFromBearer("Basic abc"))
	require.Equal(t, "", ExtractTokenFromBearer(""))
}
