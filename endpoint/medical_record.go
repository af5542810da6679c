package endpoint

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medisync/hms-backend/service"
	"github.com/medisync/hms-backend/util"
)

type CreateMedicalRecordRequest struct {
	PatientID         uint   `json:"patient_id" binding:"required" example:"3"`
	DoctorID          uint   `json:"doctor_id" binding:"required" example:"1"`
	AppointmentID     uint   `json:"appointment_id" binding:"required" example:"7"`
	Diagnosis         string `json:"diagnosis" binding:"required" example:"Acute bronchitis"`
	ConsultationNotes string `json:"consultation_notes" example:"Prescribed rest and fluids"`
}

func medicalRecordServiceFor(c *gin.Context) (service.MedicalRecordService, service.Principal, bool) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return nil, service.Principal{}, false
	}
	principal, ok := currentPrincipal(c, db)
	if !ok {
		return nil, service.Principal{}, false
	}
	return service.NewMedicalRecordService(db, util.AppLogger()), principal, true
}

// CreateMedicalRecord godoc
// @Summary      Create a medical record
// @Description  Record diagnosis and consultation notes against an appointment, completing it. One record per appointment
// @Tags         MedicalRecords
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body CreateMedicalRecordRequest true "Record details"
// @Success      200 {object} util.APIResponse "Medical record created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Not allowed"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Appointment already has a record"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-records [post]
func CreateMedicalRecord(c *gin.Context) {
	var req CreateMedicalRecordRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	svc, principal, ok := medicalRecordServiceFor(c)
	if !ok {
		return
	}

	view, err := svc.Create(principal, service.CreateMedicalRecordInput{
		PatientID:         req.PatientID,
		DoctorID:          req.DoctorID,
		AppointmentID:     req.AppointmentID,
		Diagnosis:         req.Diagnosis,
		ConsultationNotes: req.ConsultationNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Medical record created",
		Data: view,
	})
}

// ListMedicalRecords godoc
// @Summary      List medical records
// @Description  List the records visible to the caller: all for admins, authored for doctors, own for patients
// @Tags         MedicalRecords
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Medical records fetched successfully"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-records [get]
func ListMedicalRecords(c *gin.Context) {
	svc, principal, ok := medicalRecordServiceFor(c)
	if !ok {
		return
	}

	views, err := svc.AccessibleBy(principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Medical records fetched successfully",
		Data: map[string]interface{}{"total": len(views), "medical_records": views},
	})
}

// GetMedicalRecord godoc
// @Summary      Get medical record by id
// @Description  Fetch a single record. Doctors may read records they authored, patients records about themselves, admins any
// @Tags         MedicalRecords
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Medical record ID"
// @Success      200 {object} util.APIResponse "Medical record fetched successfully"
// @Failure      401 {object} util.APIResponse "Not allowed"
// @Failure      404 {object} util.APIResponse "Record not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-records/{id} [get]
func GetMedicalRecord(c *gin.Context) {
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid medical record ID",
			Err: err,
		})
		return
	}

	svc, principal, ok := medicalRecordServiceFor(c)
	if !ok {
		return
	}

	view, err := svc.ByID(principal, uint(recordID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Medical record fetched successfully",
		Data: view,
	})
}
