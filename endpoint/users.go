package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/util"
)

// CurrentUserResponse is the authenticated user's account plus their
// role-specific profile. Only one of Doctor/Patient is set.
type CurrentUserResponse struct {
	ID      uint           `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Role    string         `json:"role"`
	Doctor  *model.Doctor  `json:"doctor,omitempty"`
	Patient *model.Patient `json:"patient,omitempty"`
}

// GetCurrentUser godoc
// @Summary      Current user profile
// @Description  Return the authenticated user's account and role profile
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=CurrentUserResponse} "User profile"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/me [get]
func GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserIDOrRespond(c)
	if !ok {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve user", Err: err})
		return
	}

	var role model.Role
	if err := db.First(&role, "id = ?", user.RoleID).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to resolve user role", Err: err})
		return
	}

	resp := CurrentUserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  role.Name,
	}

	switch role.Name {
	case model.RoleDoctor:
		var doctor model.Doctor
		if err := db.Where("user_id = ?", user.ID).First(&doctor).Error; err != nil {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Doctor profile not found for current user",
				Err: fmt.Errorf("doctor profile missing"),
			})
			return
		}
		resp.Doctor = &doctor
	case model.RolePatient:
		var patient model.Patient
		if err := db.Where("user_id = ?", user.ID).First(&patient).Error; err != nil {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient profile not found for current user",
				Err: fmt.Errorf("patient profile missing"),
			})
			return
		}
		resp.Patient = &patient
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "User profile fetched successfully",
		Data: resp,
	})
}
