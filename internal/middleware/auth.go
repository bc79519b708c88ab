package middleware

import (
	"errors"
	"net/http"
	"strings"

	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated uuid.UUID.
const UserIDKey = "userID"

type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

func JWTAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		userID, err := tokens.ParseToken(parts[1])
		if errors.Is(err, auth.ErrInvalidClaims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// Principal returns the requester set by JWTAuthMiddleware.
func Principal(c *gin.Context) (policy.Principal, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return policy.Principal{}, false
	}
	userID, ok := v.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return policy.Principal{}, false
	}
	return policy.Principal{UserID: userID}, true
}

// RequireRole lets the request through only when has_role(requester, role).
func RequireRole(roles policy.RoleChecker, role model.AppRole, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		has, err := roles.HasRole(c.Request.Context(), p.UserID, role)
		if err != nil {
			log.Error("role check failed", zap.Error(err), zap.String("user_id", p.UserID.String()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !has {
			log.Warn("forbidden", zap.String("user_id", p.UserID.String()), zap.String("role", string(role)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}
