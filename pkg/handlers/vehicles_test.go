package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/models"
)

func vehiclesMux(svc *mockVehicleService) *http.ServeMux {
	mux := http.NewServeMux()
	NewVehiclesHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestVehiclesHandler_Create(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{})

	body, _ := json.Marshal(models.Vehicle{Registration: "AB12CDE", Make: "Ford"})
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestVehiclesHandler_CreateInvalidRegistration(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{createErr: apperrors.ErrInvalidRegistration})

	body, _ := json.Marshal(models.Vehicle{Registration: "!!!"})
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVehiclesHandler_CreateDuplicate(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{createErr: apperrors.ErrConflict})

	body, _ := json.Marshal(models.Vehicle{Registration: "AB12CDE"})
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVehiclesHandler_Get(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{vehicle: &models.Vehicle{Registration: "AB12CDE"}})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/AB12CDE", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var vehicle models.Vehicle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vehicle))
	assert.Equal(t, "AB12CDE", vehicle.Registration)
}

func TestVehiclesHandler_GetNotFound(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{getErr: apperrors.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/ZZ99ZZZ", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVehiclesHandler_RefreshUpstreamDown(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{refreshErr: assert.AnError})

	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/AB12CDE/refresh", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVehiclesHandler_MOTHistory(t *testing.T) {
	mux := vehiclesMux(&mockVehicleService{motTests: []models.MOTTest{{Result: "PASSED"}}})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/ab12cde/mot-history", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Registration string           `json:"registration"`
		MOTTests     []models.MOTTest `json:"mot_tests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "AB12CDE", response.Registration)
	require.Len(t, response.MOTTests, 1)
}
