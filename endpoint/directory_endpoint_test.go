package endpoint_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medisync/hms-backend/endpoint"
)

func TestListDoctorsIsPublic(t *testing.T) {
	f := setupClinicServer(t)

	rr, err := doRequest(f.Router, "GET", "/doctors", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	data := parseDataToMap(t, parseAPIResp(t, rr).Data)
	assert.Equal(t, float64(1), data["total"])
}

func TestListDoctorsCacheInvalidatedOnSignup(t *testing.T) {
	f := setupClinicServer(t)

	rr, _ := doRequest(f.Router, "GET", "/doctors", nil, nil)
	data := parseDataToMap(t, parseAPIResp(t, rr).Data)
	assert.Equal(t, float64(1), data["total"])

	// A new doctor signup must show up despite the directory cache.
	CreateAndLoginUser(t, f.Router, SignupCreds{Name: "Dr. Bob Reid", Email: "bob@clinic.test", Password: "doctorpass2", Role: "Doctor"})

	rr, _ = doRequest(f.Router, "GET", "/doctors", nil, nil)
	data = parseDataToMap(t, parseAPIResp(t, rr).Data)
	assert.Equal(t, float64(2), data["total"])
}

func TestListDoctorsKeywordFilter(t *testing.T) {
	f := setupClinicServer(t)
	CreateAndLoginUser(t, f.Router, SignupCreds{Name: "Dr. Bob Reid", Email: "bob@clinic.test", Password: "doctorpass2", Role: "Doctor"})

	rr, _ := doRequest(f.Router, "GET", "/doctors?keyword=Alice", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	data := parseDataToMap(t, parseAPIResp(t, rr).Data)
	assert.Equal(t, float64(1), data["total"])

	// Cache must not have swallowed the full listing afterwards.
	endpoint.InvalidateDoctorListCache()
	rr, _ = doRequest(f.Router, "GET", "/doctors", nil, nil)
	data = parseDataToMap(t, parseAPIResp(t, rr).Data)
	assert.Equal(t, float64(2), data["total"])
}

func TestGetDoctorByID(t *testing.T) {
	f := setupClinicServer(t)

	rr, _ := doRequest(f.Router, "GET", "/doctors/9999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = doRequest(f.Router, "GET", "/doctors/1", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestListPatientsAdminOnly(t *testing.T) {
	f := setupClinicServer(t)

	rr, _ := doRequest(f.Router, "GET", "/patients", nil, sessionHeader(f.AdminToken))
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	data := parseDataToMap(t, parseAPIResp(t, rr).Data)
	// The promoted admin account still owns a patient profile, plus Carol.
	assert.Equal(t, float64(2), data["total"])

	rr, _ = doRequest(f.Router, "GET", "/patients", nil, sessionHeader(f.DoctorToken))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = doRequest(f.Router, "GET", "/patients", nil, sessionHeader(f.PatientToken))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListPatientsPagination(t *testing.T) {
	f := setupClinicServer(t)

	rr, _ := doRequest(f.Router, "GET", "/patients?limit=1", nil, sessionHeader(f.AdminToken))
	assert.Equal(t, http.StatusOK, rr.Code)
	data := parseDataToMap(t, parseAPIResp(t, rr).Data)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(1), data["total_fetched"])
}
