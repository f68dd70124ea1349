package security

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIdentityTokenRoundTrip(t *testing.T) {
	token, err := CreateIdentityToken(Identity{UserID: 42, Role: RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)

	id, err := ParseIdentityToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Role: RoleAdmin}, id)
}

func TestParseIdentityTokenRejects(t *testing.T) {
	expired, err := CreateIdentityToken(Identity{UserID: 1, Role: RoleMember}, testSecret, -time.Minute)
	require.NoError(t, err)

	wrongKey, err := CreateIdentityToken(Identity{UserID: 1, Role: RoleMember}, []byte("another-secret"), time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"garbage":    "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseIdentityToken(token, testSecret)
			assert.Error(t, err)
		})
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleAdmin, ParseRole(" admin "))
	assert.Equal(t, RoleMember, ParseRole("member"))
	assert.Equal(t, RoleMember, ParseRole("owner"))
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleMember.IsAdmin())
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: 3, Role: RoleMember})
	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(3), id.UserID)
}

func TestDecodeSecret(t *testing.T) {
	_, err := DecodeSecret("")
	assert.Error(t, err)

	_, err = DecodeSecret("%%%")
	assert.Error(t, err)

	secret, err := DecodeSecret("c2VjcmV0")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), secret)
}
