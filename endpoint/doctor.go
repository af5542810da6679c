package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/util"
)

// The doctor directory changes rarely but is hit on every booking screen, so
// the unfiltered listing is memoized for a short TTL.
var doctorListCache = gocache.New(5*time.Minute, 10*time.Minute)

const doctorListCacheKey = "doctors:all"

// InvalidateDoctorListCache drops the cached directory. Called after signup
// creates a new doctor profile.
func InvalidateDoctorListCache() {
	doctorListCache.Delete(doctorListCacheKey)
}

func fetchDoctors(db *gorm.DB, keyword string) ([]model.Doctor, error) {
	// Only the unfiltered listing is cached; keyword searches go to the DB.
	if keyword == "" {
		if cached, found := doctorListCache.Get(doctorListCacheKey); found {
			if doctors, ok := cached.([]model.Doctor); ok {
				return doctors, nil
			}
		}
	}

	var doctors []model.Doctor
	query := db.Order("full_name ASC")
	if keyword != "" {
		query = query.Where("full_name LIKE ? OR specialization LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if err := query.Find(&doctors).Error; err != nil {
		return nil, err
	}

	if keyword == "" {
		doctorListCache.Set(doctorListCacheKey, doctors, gocache.DefaultExpiration)
	}
	return doctors, nil
}

// ListDoctors godoc
// @Summary      List doctors
// @Description  Public doctor directory for the booking flow, optionally filtered by name or specialization keyword
// @Tags         Doctors
// @Produce      json
// @Security     BearerAuth
// @Param        keyword query string false "Filter by name or specialization"
// @Success      200 {object} util.APIResponse "Doctors fetched successfully"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors [get]
func ListDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctors, err := fetchDoctors(db, c.Query("keyword"))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to fetch doctors",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors fetched successfully",
		Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
	})
}

// GetDoctor godoc
// @Summary      Get doctor by id
// @Description  Fetch a single doctor profile
// @Tags         Doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor fetched successfully"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors/{id} [get]
func GetDoctor(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing doctor ID",
			Err: fmt.Errorf("doctor ID is required"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to fetch doctor", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor fetched successfully",
		Data: doctor,
	})
}
