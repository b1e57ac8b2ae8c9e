package middleware

import (
	"net/http"
	"strings"

	"storefront/api/response"
	"storefront/domain/user"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const principalKey = "principal"

// AuthMiddleware verifies an HS256 bearer token and stores the caller as a
// user.Principal. Claims: "id" (required), "role" (optional, "admin" or "user").
func AuthMiddleware(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "No auth token, access denied")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header format")
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, keyFunc)
		if err != nil || !token.Valid {
			logger.FromContext(c.Request.Context()).Debug("token verification failed", zap.Error(err))
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token verification failed, access denied")
			return
		}

		userID, _ := claims["id"].(string)
		if userID == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "User ID not found in token")
			return
		}

		role := user.RoleCustomer
		if r, _ := claims["role"].(string); user.Role(r).IsValid() {
			role = user.Role(r)
		}

		c.Set(principalKey, user.Principal{ID: userID, Role: role})
		c.Next()
	}
}

// PrincipalFrom zero Principal when the auth middleware did not run
func PrincipalFrom(c *gin.Context) user.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(user.Principal); ok {
			return p
		}
	}
	return user.Principal{}
}
