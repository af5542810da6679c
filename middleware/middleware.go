package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/config"
	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/util"
)

// Context keys used to expose the authenticated principal to handlers.
const (
	UserIDKey = "user_id"
	RoleIDKey = "role_id"
	DBKey     = "db"
)

func setCorsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, session-token")
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Content-Type", "application/json")
}

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// tokenValidator checks the static API token carried in the Authorization header.
// OPTIONS requests bypass validation so CORS preflights succeed.
func tokenValidator(c *gin.Context, expected string) bool {
	if c.Request.Method == "OPTIONS" {
		return true
	}
	got := c.GetHeader("Authorization")
	if got == "" || got != expected {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API token"})
		return false
	}
	return true
}

// APITokenMiddleware guards endpoints behind the shared APITOKEN secret.
func APITokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := fmt.Sprintf("Bearer %s", os.Getenv("APITOKEN"))
		if !tokenValidator(c, expected) {
			return
		}
		c.Next()
	}
}

// DatabaseMiddleware injects the gorm DB handle into the request context.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the gorm DB from the request context, or nil if absent.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(DBKey)
	if !ok {
		return nil
	}
	db, ok := v.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetRoleID returns the authenticated user's role id from the request context.
func GetRoleID(c *gin.Context) (uint32, bool) {
	v, ok := c.Get(RoleIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint32)
	return id, ok
}

// lookupSessionInRedis resolves a session token via the Redis "session:<token>"
// key, whose value is "<userID>:<roleID>". Returns ok=false when Redis is
// unavailable or the value cannot be parsed, in which case the caller falls
// back to the sessions table.
func lookupSessionInRedis(token string) (uint, uint32, bool) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return 0, 0, false
	}

	val, err := rdb.Get(context.Background(), fmt.Sprintf("session:%s", token)).Result()
	if err != nil {
		// redis.Nil (key absent) and transport errors both fall back to the DB
		return 0, 0, false
	}

	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	uid, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || uid == 0 {
		return 0, 0, false
	}
	rid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint(uid), uint32(rid), true
}

// ValidateLoginToken authenticates the request from the session-token header.
// Redis is consulted first; any miss or malformed entry falls back to the
// sessions table. On success the user id and role id are stored in the gin
// context for handlers to build the request principal from.
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := c.GetHeader("session-token")
		if sessionToken == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session token is missing in 'session-token' header",
				Err: fmt.Errorf("session token is empty"),
			})
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		if uid, rid, ok := lookupSessionInRedis(sessionToken); ok {
			c.Set(UserIDKey, uid)
			c.Set(RoleIDKey, rid)
			c.Next()
			return
		}

		var session model.Session
		err := db.Where("session_token = ? AND expires_at > ?", sessionToken, time.Now()).
			First(&session).Error
		if err != nil {
			util.LogUnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, "session not found or expired")
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session not found or has expired",
				Err: fmt.Errorf("invalid session token"),
			})
			c.Abort()
			return
		}

		var user model.User
		if err := db.First(&user, session.UserID).Error; err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "User associated with the session was not found",
				Err: fmt.Errorf("user not found"),
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(RoleIDKey, user.RoleID)
		c.Next()
	}
}

// RequireRole restricts a route group to callers holding one of the named
// roles. It must run after ValidateLoginToken.
func RequireRole(roleNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		roleID, ok := GetRoleID(c)
		if !ok {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "User role not resolved",
				Err: fmt.Errorf("role id not found in context"),
			})
			c.Abort()
			return
		}

		var role model.Role
		if err := db.First(&role, "id = ?", roleID).Error; err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "User role not found",
				Err: err,
			})
			c.Abort()
			return
		}

		if util.Contains(role.Name, roleNames) {
			c.Next()
			return
		}

		uid, _ := GetUserID(c)
		util.LogUnauthorizedAccess(fmt.Sprintf("%d", uid), "", c.ClientIP(), c.Request.URL.Path, "insufficient role")
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "You are not allowed to access this resource",
			Err: fmt.Errorf("insufficient role"),
		})
		c.Abort()
	}
}
