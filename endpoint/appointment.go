package endpoint

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medisync/hms-backend/model"
	"github.com/medisync/hms-backend/service"
	"github.com/medisync/hms-backend/util"
)

type CreateAppointmentRequest struct {
	PatientID       uint   `json:"patient_id" example:"3"`
	DoctorID        uint   `json:"doctor_id" binding:"required" example:"1"`
	AppointmentTime string `json:"appointment_time" binding:"required" example:"2025-09-15T09:30:00Z"`
	DisplayTime     string `json:"display_time" example:"Mon, Sep 15 2025 at 9:30 AM"`
	Reason          string `json:"reason" example:"Recurring headaches"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required" example:"CANCELLED"`
}

func appointmentServiceFor(c *gin.Context) (service.AppointmentService, service.Principal, bool) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return nil, service.Principal{}, false
	}
	principal, ok := currentPrincipal(c, db)
	if !ok {
		return nil, service.Principal{}, false
	}
	return service.NewAppointmentService(db, util.AppLogger()), principal, true
}

// CreateAppointment godoc
// @Summary      Book an appointment
// @Description  Create a SCHEDULED appointment. Patient callers always book for themselves; admins may book for a named patient
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body CreateAppointmentRequest true "Booking details"
// @Success      200 {object} util.APIResponse "Appointment booked successfully"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Doctor or patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [post]
func CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	appointmentTime, err := time.Parse(time.RFC3339, req.AppointmentTime)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid appointment_time, expected RFC3339 timestamp",
			Err: err,
		})
		return
	}

	svc, principal, ok := appointmentServiceFor(c)
	if !ok {
		return
	}

	// display_time is a caller-supplied presentation string; only synthesize
	// one when the request leaves it blank.
	displayTime := req.DisplayTime
	if displayTime == "" {
		displayTime = appointmentTime.Format("Mon, Jan 2 2006 at 3:04 PM")
	}

	view, err := svc.Book(principal, service.BookAppointmentInput{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentTime: appointmentTime,
		DisplayTime:     displayTime,
		Reason:          req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment booked successfully",
		Data: view,
	})
}

// ListAppointments godoc
// @Summary      List appointments
// @Description  List appointments visible to the caller. Admins see all, doctors their own, patients their own. start_date/end_date narrow the range for admins and doctors
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        start_date query string false "Range start (YYYY-MM-DD)"
// @Param        end_date query string false "Range end (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse "Appointments fetched successfully"
// @Failure      400 {object} util.APIResponse "Invalid date parameter"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [get]
func ListAppointments(c *gin.Context) {
	startDate, ok := parseDateParam(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := parseDateParam(c, "end_date")
	if !ok {
		return
	}

	svc, principal, ok := appointmentServiceFor(c)
	if !ok {
		return
	}

	views, err := svc.ForPrincipal(principal, startDate, endDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments fetched successfully",
		Data: map[string]interface{}{"total": len(views), "appointments": views},
	})
}

// TodayAppointments godoc
// @Summary      Today's appointments
// @Description  The calling doctor's appointments for the current day
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Appointments fetched successfully"
// @Failure      401 {object} util.APIResponse "Caller is not a doctor"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/today [get]
func TodayAppointments(c *gin.Context) {
	svc, principal, ok := appointmentServiceFor(c)
	if !ok {
		return
	}

	views, err := svc.TodayForDoctor(principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments fetched successfully",
		Data: map[string]interface{}{"total": len(views), "appointments": views},
	})
}

// UpdateAppointmentStatus godoc
// @Summary      Update appointment status
// @Description  Set an appointment's status. Doctors may update their own appointments, admins any
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Appointment ID"
// @Param        request body UpdateAppointmentStatusRequest true "New status"
// @Success      200 {object} util.APIResponse "Appointment status updated"
// @Failure      400 {object} util.APIResponse "Invalid status"
// @Failure      401 {object} util.APIResponse "Not allowed"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/{id}/status [patch]
func UpdateAppointmentStatus(c *gin.Context) {
	appointmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid appointment ID",
			Err: err,
		})
		return
	}

	var req UpdateAppointmentStatusRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	if !model.ValidAppointmentStatus(req.Status) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Unknown status %q", req.Status),
			Err: fmt.Errorf("invalid appointment status"),
		})
		return
	}

	svc, principal, ok := appointmentServiceFor(c)
	if !ok {
		return
	}

	view, err := svc.UpdateStatus(principal, uint(appointmentID), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment status updated",
		Data: view,
	})
}
