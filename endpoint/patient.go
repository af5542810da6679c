package endpoint

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/util"
)

func parseListParams(c *gin.Context) (limit, offset int, keyword string) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	keyword = c.Query("keyword")
	return
}

func fetchPatients(db *gorm.DB, limit, offset int, keyword string) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64

	query := db.Model(&model.Patient{}).Order("full_name ASC")
	if keyword != "" {
		query = query.Where("full_name LIKE ? OR phone LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&patients).Error; err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// ListPatients godoc
// @Summary      List patients
// @Description  Administrative patient roster with pagination and keyword search
// @Tags         Patients
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Param        keyword query string false "Filter by name or phone"
// @Success      200 {object} util.APIResponse "Patients fetched successfully"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [get]
func ListPatients(c *gin.Context) {
	limit, offset, keyword := parseListParams(c)

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patients, total, err := fetchPatients(db, limit, offset, keyword)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to fetch patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients fetched successfully",
		Data: map[string]interface{}{"total": total, "total_fetched": len(patients), "patients": patients},
	})
}

// GetPatient godoc
// @Summary      Get patient by id
// @Description  Fetch a single patient profile
// @Tags         Patients
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient fetched successfully"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{id} [get]
func GetPatient(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing patient ID",
			Err: fmt.Errorf("patient ID is required"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to fetch patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient fetched successfully",
		Data: patient,
	})
}
