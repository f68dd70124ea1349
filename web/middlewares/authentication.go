package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/security"
	"presensi.app/presensi/web/common"
)

const (
	TokenCookie = "presensi.token"
	identityKey = "identity"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		cookie, err := c.Cookie(TokenCookie)
		if err != nil || cookie == "" {
			return "", false
		}
		return cookie, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authentication requires a valid identity token from the Authorization
// header or the session cookie.
func Authentication(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			common.AbortWithError(c, model.NewError(model.KindNotAuthenticated, "missing bearer token"))
			return
		}

		identity, err := security.ParseIdentityToken(tokenStr, secret)
		if err != nil {
			common.AbortWithError(c, model.NewError(model.KindNotAuthenticated, "invalid or expired token"))
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(security.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// Identity returns the caller set by Authentication.
func Identity(c *gin.Context) (security.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return security.Identity{}, false
	}
	identity, ok := v.(security.Identity)
	return identity, ok
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := Identity(c)
		if !ok {
			common.AbortWithError(c, model.ErrNotAuthenticated)
			return
		}
		if !identity.Role.IsAdmin() {
			common.AbortWithError(c, model.ErrForbidden)
			return
		}
		c.Next()
	}
}
