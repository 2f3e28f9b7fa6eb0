package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"backend/internal/model"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("RENDER") != "" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, path=/, domain="", secure, HttpOnly
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	// refresh_token: 7 days, path=/, domain="", secure, HttpOnly
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("RENDER") != "" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// parseToken extracts and validates the JWT from cookie or Authorization header.
func parseToken(c *gin.Context) (jwt.MapClaims, bool) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return nil, false
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return nil, false
		}
		tokenString = parts[1]
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})

	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return nil, false
	}

	return claims, true
}

// RequireAuth validates the JWT and puts the caller's identity on the context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		c.Set("userID", claims["sub"])
		if role, ok := claims["role"].(string); ok {
			c.Set("userRole", role)
		}

		c.Next()
	}
}

// RequirePlatformRole validates the JWT and checks the platform-level user role
// (admin endpoints such as tax rate management).
func RequirePlatformRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				roleAllowed = true
				break
			}
		}

		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set("userID", claims["sub"])
		c.Set("userRole", userRole)

		c.Next()
	}
}

// --- Organization membership middleware ---

// memberCacheEntry stores a cached membership role with TTL
type memberCacheEntry struct {
	role      string
	expiresAt time.Time
}

var (
	memberCache    sync.Map // "orgID:userID" -> memberCacheEntry
	memberCacheTTL = 5 * time.Minute
)

// memberDB holds the database reference for membership queries — set via InitMembershipMiddleware
var memberDB *gorm.DB

// InitMembershipMiddleware sets the DB reference for RequireOrgMember middleware
func InitMembershipMiddleware(db *gorm.DB) {
	memberDB = db
}

// RequireOrgMember validates the JWT, resolves the :orgID path parameter, and
// checks that the caller is a member of that organization. When allowedRoles
// is non-empty the member's role must also be one of them. Membership lookups
// are cached; a role change can take up to the TTL to propagate.
func RequireOrgMember(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		userIDStr, _ := claims["sub"].(string)
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid subject in token"))
			return
		}

		orgID, err := uuid.Parse(c.Param("orgID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization id"))
			return
		}

		role, err := getMemberRole(orgID, userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify membership"))
			return
		}
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Not a member of this organization"))
			return
		}

		if len(allowedRoles) > 0 {
			allowed := false
			for _, r := range allowedRoles {
				if role == r {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient role in organization"))
				return
			}
		}

		c.Set("userID", userIDStr)
		c.Set("orgID", orgID)
		c.Set("memberRole", role)

		c.Next()
	}
}

// getMemberRole returns the cached or DB-fetched role of a user in an
// organization. Empty string means not a member.
func getMemberRole(orgID, userID uuid.UUID) (string, error) {
	key := orgID.String() + ":" + userID.String()

	if entry, ok := memberCache.Load(key); ok {
		cached := entry.(memberCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.role, nil
		}
		memberCache.Delete(key)
	}

	if memberDB == nil {
		return "", gorm.ErrInvalidDB
	}

	var member model.Member
	err := memberDB.First(&member, "organization_id = ? AND user_id = ?", orgID, userID).Error
	role := ""
	switch {
	case err == nil:
		role = member.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
		// non-membership is cached too, so probing costs one query per TTL
	default:
		return "", err
	}

	memberCache.Store(key, memberCacheEntry{role: role, expiresAt: time.Now().Add(memberCacheTTL)})
	return role, nil
}

// InvalidateMemberCache drops the cached role for one org/user pair. Called
// after role updates or removals so changes apply without waiting out the TTL.
func InvalidateMemberCache(orgID, userID uuid.UUID) {
	memberCache.Delete(orgID.String() + ":" + userID.String())
}
