package endpoint_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/config"
	"github.com/medisync/hms-backend/endpoint"
	"github.com/medisync/hms-backend/middleware"
	"github.com/medisync/hms-backend/model"
)

// apiResp mirrors the standard response envelope for decoding in tests.
type apiResp struct {
	Success bool            `json:"success"`
	Message string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(r http.Handler, method, path string, body []byte, headers map[string]string) (*httptest.ResponseRecorder, error) {
	req, err := http.NewRequest(method, path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr, nil
}

// SetupTestServer initializes DB, migrates models, seeds roles and returns a Gin router
// wired with the full route surface. It calls t.Fatalf on fatal errors.
func SetupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := config.ConnectMySQL()
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}

	testModels := []interface{}{
		&model.Role{}, &model.User{}, &model.Session{},
		&model.Doctor{}, &model.Patient{},
		&model.Appointment{}, &model.MedicalRecord{},
		&model.SecurityLog{},
	}

	if err := db.AutoMigrate(testModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	if err := model.SeedRoles(db); err != nil {
		t.Fatalf("seeding roles failed: %v", err)
	}

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.DatabaseMiddleware(db))

	// Public routes
	r.POST("/signup", endpoint.Signup)
	r.POST("/login", endpoint.Login)
	r.GET("/token/validate", endpoint.ValidateToken)
	r.GET("/doctors", endpoint.ListDoctors)
	r.GET("/doctors/:id", endpoint.GetDoctor)

	// Protected routes
	auth := r.Group("/")
	auth.Use(middleware.ValidateLoginToken())
	{
		auth.DELETE("/logout", endpoint.Logout)
		auth.POST("/verify-password", endpoint.VerifyPassword)
		auth.GET("/users/me", endpoint.GetCurrentUser)

		auth.POST("/appointments", endpoint.CreateAppointment)
		auth.GET("/appointments", endpoint.ListAppointments)
		auth.GET("/appointments/today", endpoint.TodayAppointments)
		auth.PATCH("/appointments/:id/status", endpoint.UpdateAppointmentStatus)

		auth.POST("/medical-records", endpoint.CreateMedicalRecord)
		auth.GET("/medical-records", endpoint.ListMedicalRecords)
		auth.GET("/medical-records/:id", endpoint.GetMedicalRecord)

		admin := auth.Group("/patients")
		admin.Use(middleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("", endpoint.ListPatients)
			admin.GET(":id", endpoint.GetPatient)
		}
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(testModels...)
		endpoint.InvalidateDoctorListCache()
	})

	return r, db
}

// SignupCreds carries the fields for registering a test account.
type SignupCreds struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// CreateAndLoginUser signs up and logs in a user, returning session token and user id.
// It fails the test on error.
func CreateAndLoginUser(t *testing.T, r http.Handler, creds SignupCreds) (string, uint) {
	t.Helper()

	signupBody := map[string]string{
		"name":     creds.Name,
		"email":    creds.Email,
		"password": creds.Password,
		"role":     creds.Role,
	}
	b, _ := json.Marshal(signupBody)
	rr, err := doRequest(r, "POST", "/signup", b, nil)
	if err != nil {
		t.Fatalf("signup %s failed: %v", creds.Email, err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("signup %s returned non-200: %d %s", creds.Email, rr.Code, rr.Body.String())
	}

	loginBody := map[string]string{"email": creds.Email, "password": creds.Password}
	b, _ = json.Marshal(loginBody)
	rr, err = doRequest(r, "POST", "/login", b, nil)
	if err != nil {
		t.Fatalf("login %s failed: %v", creds.Email, err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s returned non-200: %d %s", creds.Email, rr.Code, rr.Body.String())
	}

	var resp apiResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login resp failed: %v", err)
	}
	var data struct {
		Token  string `json:"token"`
		Role   string `json:"role"`
		UserID uint   `json:"user_id"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("parse login data failed: %v", err)
	}
	return data.Token, data.UserID
}

// promoteToAdmin reassigns an existing account to the Admin role. Admin
// accounts cannot be registered through /signup, so tests seed them this way.
func promoteToAdmin(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()
	var role model.Role
	if err := db.Where("name = ?", model.RoleAdmin).First(&role).Error; err != nil {
		t.Fatalf("admin role not seeded: %v", err)
	}
	if err := db.Model(&model.User{}).Where("id = ?", userID).Update("role_id", role.ID).Error; err != nil {
		t.Fatalf("failed to promote user %d to admin: %v", userID, err)
	}
	// Drop any cached session so the next login reflects the new role.
	if err := db.Where("user_id = ?", userID).Delete(&model.Session{}).Error; err != nil {
		t.Fatalf("failed to clear sessions for user %d: %v", userID, err)
	}
}

// loginUser logs an existing account in and returns the session token.
func loginUser(t *testing.T, r http.Handler, email, password string) string {
	t.Helper()
	b, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rr, err := doRequest(r, "POST", "/login", b, nil)
	if err != nil {
		t.Fatalf("login %s failed: %v", email, err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s returned non-200: %d %s", email, rr.Code, rr.Body.String())
	}
	resp := parseAPIResp(t, rr)
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("parse login data failed: %v", err)
	}
	return data.Token
}

// setupClinicServer boots a server with one admin, one doctor and one patient
// account already registered and logged in.
type clinicFixture struct {
	Router       *gin.Engine
	DB           *gorm.DB
	AdminToken   string
	DoctorToken  string
	PatientToken string
	DoctorUserID uint
	PatientID    uint
	DoctorID     uint
}

func setupClinicServer(t *testing.T) *clinicFixture {
	t.Helper()
	r, db := SetupTestServer(t)

	adminToken, adminUserID := CreateAndLoginUser(t, r, SignupCreds{Name: "Head Admin", Email: "admin@clinic.test", Password: "adminpass1", Role: "Patient"})
	promoteToAdmin(t, db, adminUserID)
	adminToken = loginUser(t, r, "admin@clinic.test", "adminpass1")

	doctorToken, doctorUserID := CreateAndLoginUser(t, r, SignupCreds{Name: "Dr. Alice Wong", Email: "alice@clinic.test", Password: "doctorpass1", Role: "Doctor"})
	patientToken, patientUserID := CreateAndLoginUser(t, r, SignupCreds{Name: "Carol Danvers", Email: "carol@clinic.test", Password: "patientpass1", Role: "Patient"})

	var doctor model.Doctor
	if err := db.Where("user_id = ?", doctorUserID).First(&doctor).Error; err != nil {
		t.Fatalf("doctor profile not created at signup: %v", err)
	}
	var patient model.Patient
	if err := db.Where("user_id = ?", patientUserID).First(&patient).Error; err != nil {
		t.Fatalf("patient profile not created at signup: %v", err)
	}

	return &clinicFixture{
		Router:       r,
		DB:           db,
		AdminToken:   adminToken,
		DoctorToken:  doctorToken,
		PatientToken: patientToken,
		DoctorUserID: doctorUserID,
		DoctorID:     doctor.ID,
		PatientID:    patient.ID,
	}
}

// parseAPIResp decodes a standard API response from a ResponseRecorder.
func parseAPIResp(t *testing.T, rr *httptest.ResponseRecorder) apiResp {
	t.Helper()
	var resp apiResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

// parseDataToMap unmarshals an API response Data field into a map.
func parseDataToMap(t *testing.T, raw json.RawMessage) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("parse data failed: %v", err)
	}
	return data
}

func sessionHeader(token string) map[string]string {
	return map[string]string{"session-token": token}
}
