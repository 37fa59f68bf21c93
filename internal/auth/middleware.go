package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyClaims is where RequireAuth stores the decoded token claims.
const ContextKeyClaims = "auth_claims"

// Middleware authenticates API requests with bearer tokens.
type Middleware struct {
	tokens *TokenIssuer
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(tokens *TokenIssuer) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the decoded claims in the context otherwise.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": ErrAuthRequired.Error(),
			})
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			msg := ErrInvalidToken.Error()
			if errors.Is(err, ErrTokenExpired) {
				msg = ErrTokenExpired.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Helper functions to extract auth data from Gin context

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request was not authenticated.
func GetUserID(c *gin.Context) uint {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// GetClaims retrieves the decoded token claims from the context, or nil for
// unauthenticated requests.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}
