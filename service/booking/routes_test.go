package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func setupSlotsRouter(t *testing.T) (*mux.Router, *models.Expert) {
	t.Helper()

	db := setupTestDB(t)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-06": {"2:00pm", "3:30pm"},
	})

	router := mux.NewRouter()
	NewBookingHandler(db, nil).RegisterRoutes(router)
	return router, expert
}

func TestGetAvailableSlotsNormalizesResponseDate(t *testing.T) {
	router, _ := setupSlotsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/experts/1/slots?date=2025-7-6", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date  string   `json:"date"`
		Slots []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2025-07-06", resp.Date)
	require.Equal(t, []string{"2:00pm", "3:30pm"}, resp.Slots)
}

func TestGetAvailableSlotsRejectsBadDate(t *testing.T) {
	router, _ := setupSlotsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/experts/1/slots?date=someday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/experts/1/slots", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
