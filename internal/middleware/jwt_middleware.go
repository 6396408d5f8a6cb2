package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pricing_api/internal/utils"
)

// JWTMiddleware checks bearer tokens signed with a shared secret.
type JWTMiddleware struct {
	secret  string
	limiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware creates a JWTMiddleware. An empty secret disables the check.
func NewJWTMiddleware(secret string) *JWTMiddleware {
	return &JWTMiddleware{
		secret:  secret,
		limiter: NewInvalidAuthRateLimiter(5, time.Minute),
	}
}

// Enabled reports whether tokens are required.
func (m *JWTMiddleware) Enabled() bool {
	return m.secret != ""
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if m.limiter.Blocked(ip) {
			utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many invalid authentication attempts")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.limiter.Fail(ip)
			utils.Error(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(m.secret, strings.TrimSpace(parts[1]))
		if err != nil {
			m.limiter.Fail(ip)
			msg := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Token expired"
			}
			utils.Error(c, http.StatusUnauthorized, utils.CodeInvalidToken, msg)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
