package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "presensi"

// IdentityClaims includes the role and standard JWT claims; the subject is
// the user id.
type IdentityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func DecodeSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing secret: %w", err)
	}
	return secret, nil
}

func CreateIdentityToken(identity Identity, secret []byte, expiresIn time.Duration) (string, error) {
	claims := IdentityClaims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity.UserID), 10),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}

	// Use HS256 signing method (symmetric key)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

// ParseIdentityToken validates signature and expiry and returns the caller.
func ParseIdentityToken(tokenStr string, secret []byte) (Identity, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return Identity{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}

	return Identity{UserID: uint(userID), Role: ParseRole(claims.Role)}, nil
}
