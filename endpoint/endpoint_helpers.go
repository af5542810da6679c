package endpoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/middleware"
	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/service"
	"github.com/medisync/hms-backend/util"
)

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

func currentUserIDOrRespond(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User not authenticated",
			Err: fmt.Errorf("user id not found in context"),
		})
		return 0, false
	}
	return userID, true
}

// currentPrincipal builds the request principal from the ids ValidateLoginToken
// stored in the gin context, resolving the role id to its name.
func currentPrincipal(c *gin.Context, db *gorm.DB) (service.Principal, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User not authenticated",
			Err: fmt.Errorf("user id not found in context"),
		})
		return service.Principal{}, false
	}

	roleID, ok := middleware.GetRoleID(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User role not resolved",
			Err: fmt.Errorf("role id not found in context"),
		})
		return service.Principal{}, false
	}

	var role model.Role
	if err := db.First(&role, "id = ?", roleID).Error; err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User role not found",
			Err: err,
		})
		return service.Principal{}, false
	}

	return service.Principal{UserID: userID, Role: role.Name}, true
}

// respondServiceError translates a service error into the API envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEntityNotFound), errors.Is(err, service.ErrProfileMissing):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: err.Error(), Err: err})
	case errors.Is(err, service.ErrAccessDenied):
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: err.Error(), Err: err})
	case errors.Is(err, service.ErrDuplicateRecord):
		util.CallConflict(c, util.APIErrorParams{Msg: err.Error(), Err: err})
	case errors.Is(err, service.ErrInvalidInput):
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: "Internal server error", Err: err})
	}
}

// parseDateParam parses an optional YYYY-MM-DD query value. A blank value
// yields nil; a malformed one is reported to the caller.
func parseDateParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid %s, expected YYYY-MM-DD", name),
			Err: err,
		})
		return nil, false
	}
	return &parsed, true
}
