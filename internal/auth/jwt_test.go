package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/auth"
)

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.ariamap.it",
		Audience:   "ariamap-api",
	})

	// Generate token
	token, expiresAt, err := svc.GenerateAccessToken("usr_test123", auth.RoleResearcher)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	// Validate token
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_test123", claims.UserID)
	assert.Equal(t, "usr_test123", claims.Subject)
	assert.Equal(t, auth.RoleResearcher, claims.Role)
	assert.Equal(t, "https://api.ariamap.it", claims.Issuer)
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-key",
		Issuer:     "https://api.ariamap.it",
		Audience:   "ariamap-api",
	})

	_, _, err := svc.GenerateAccessToken("usr_test123", "SUPERUSER")
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.ariamap.it",
		Audience:   "ariamap-api",
	})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	// Generate with one key
	svc1 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "key-one",
		Issuer:     "https://api.ariamap.it",
		Audience:   "ariamap-api",
	})

	token, _, err := svc1.GenerateAccessToken("usr_test123", auth.RoleAdmin)
	require.NoError(t, err)

	// Validate with different key
	svc2 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "key-two",
		Issuer:     "https://api.ariamap.it",
		Audience:   "ariamap-api",
	})

	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	// Generate with one issuer
	svc1 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-key",
		Issuer:     "issuer-one",
		Audience:   "ariamap-api",
	})

	token, _, err := svc1.GenerateAccessToken("usr_test123", auth.RoleRegular)
	require.NoError(t, err)

	// Validate with different issuer
	svc2 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-key",
		Issuer:     "issuer-two",
		Audience:   "ariamap-api",
	})

	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_WrongAudience(t *testing.T) {
	// Generate with one audience
	svc1 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-key",
		Issuer:     "https://api.ariamap.it",
		Audience:   "audience-one",
	})

	token, _, err := svc1.GenerateAccessToken("usr_test123", auth.RoleRegular)
	require.NoError(t, err)

	// Validate with different audience
	svc2 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-key",
		Issuer:     "https://api.ariamap.it",
		Audience:   "audience-two",
	})

	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidRole(t *testing.T) {
	assert.True(t, auth.ValidRole(auth.RoleAdmin))
	assert.True(t, auth.ValidRole(auth.RoleRegular))
	assert.True(t, auth.ValidRole(auth.RoleResearcher))
	assert.False(t, auth.ValidRole("admin"))
	assert.False(t, auth.ValidRole(""))
}
