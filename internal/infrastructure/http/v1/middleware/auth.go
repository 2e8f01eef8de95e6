package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/actor"
	"stockledger/internal/core/apperror"
)

// TokenValidator verifies a bearer token and resolves the acting identity.
type TokenValidator interface {
	ValidateToken(token string) (actor.Actor, error)
}

// Auth authenticates requests with a bearer token and stores the actor in
// the request context for audit attribution.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		a, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		ctx := actor.WithActor(c.Request.Context(), a)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	appErr := apperror.NewUnauthorized(message)
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
