package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/service"
)

const claimsKey = "auth_claims"

// JWTAuth validates the Bearer token and stores the claims in the request
// context for handlers and later middleware.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("missing bearer token"))
			return
		}
		claims, err := service.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole restricts a route to the given roles. Must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient privileges"))
			return
		}
		c.Next()
	}
}

// RequirePrivileged restricts a route to supervisors and admins.
func RequirePrivileged() gin.HandlerFunc {
	return RequireRole(model.RoleSupervisor, model.RoleAdmin)
}

// GetClaims returns the authenticated claims, or nil on unauthenticated
// routes.
func GetClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
