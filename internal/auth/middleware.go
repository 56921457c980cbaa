package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmaldonado1992/MedVerify/internal/apperr"
)

const identityContextKey = "medverifyIdentity"

// OptionalIdentity validates a bearer token when one is sent and stores its
// claims on the context. Requests without an Authorization header pass through
// unchanged, so the plain userId contract keeps working.
func OptionalIdentity(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := extractBearerToken(header)
		if token == "" {
			apperr.Respond(c, apperr.Unauthorized("invalid authorization header"))
			return
		}

		claims, err := service.ValidateAccessToken(token)
		if err != nil {
			apperr.Respond(c, apperr.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(identityContextKey, claims)
		c.Next()
	}
}

// Identity returns the claims stored by OptionalIdentity.
func Identity(c *gin.Context) (Claims, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return Claims{}, false
	}
	claims, ok := value.(Claims)
	return claims, ok
}

// Authorize checks that an authenticated caller acts on its own userID.
// Anonymous callers are allowed.
func Authorize(c *gin.Context, userID string) error {
	claims, ok := Identity(c)
	if !ok {
		return nil
	}
	if claims.UserID != strings.TrimSpace(userID) {
		return apperr.Forbidden("token subject does not match userId")
	}
	return nil
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
