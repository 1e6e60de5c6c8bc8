package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"pointshop/config"
	"pointshop/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the admin JWT and sets admin_id and role in context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "reason": "unauthorized", "message": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "reason": "unauthorized", "message": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "reason": "unauthorized", "message": "invalid or expired token"})
			return
		}
		c.Set("admin_id", claims.AdminID)
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

// GetAdminID returns the authenticated admin ID from context (must be used after AuthRequired).
func GetAdminID(c *gin.Context) int64 {
	v, ok := c.Get("admin_id")
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// BotKeyRequired admits requests carrying the shared transport key in X-Bot-Key.
func BotKeyRequired(key string) gin.HandlerFunc {
	expected := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("X-Bot-Key"))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "reason": "unauthorized", "message": "invalid bot key"})
			return
		}
		c.Next()
	}
}
