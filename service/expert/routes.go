package expert

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/adjoaboateng/CareerHub-server/cmd/utils"
	"github.com/adjoaboateng/CareerHub-server/service/booking"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExpertHandler struct {
	db  *gorm.DB
	svc *booking.Service
}

func NewExpertHandler(db *gorm.DB) *ExpertHandler {
	return &ExpertHandler{
		db:  db,
		svc: booking.NewService(db),
	}
}

func (h *ExpertHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/experts", h.GetExperts).Methods("GET")
	router.HandleFunc("/experts/{id}", h.GetExpert).Methods("GET")
	router.HandleFunc("/experts", utils.AdminOnly(h.CreateExpert)).Methods("POST")
	router.HandleFunc("/experts/{id}", utils.AdminOnly(h.UpdateExpert)).Methods("PUT")
	router.HandleFunc("/experts/{id}/availability", utils.AdminOnly(h.SetAvailability)).Methods("PUT")
	router.HandleFunc("/experts/{id}", utils.AdminOnly(h.DeleteExpert)).Methods("DELETE")
}

// expertView is an expert plus the computed open slots for a requested date.
type expertView struct {
	models.Expert
	AvailableSlots []string `json:"available_slots,omitempty"`
}

// GetExperts lists every expert. With a ?date= query each entry also carries
// the slots still open on that date, so the booking screen needs one request.
func (h *ExpertHandler) GetExperts(w http.ResponseWriter, r *http.Request) {
	var experts []models.Expert
	if err := h.db.Order("name ASC").Find(&experts).Error; err != nil {
		http.Error(w, "Error retrieving experts", http.StatusInternalServerError)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(experts)
		return
	}

	normalized, err := booking.NormalizeDate(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	views := make([]expertView, 0, len(experts))
	for i := range experts {
		slots, err := h.svc.AvailableSlotsFor(&experts[i], normalized)
		if err != nil {
			http.Error(w, "Error computing availability", http.StatusInternalServerError)
			return
		}
		views = append(views, expertView{Expert: experts[i], AvailableSlots: slots})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *ExpertHandler) GetExpert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid expert ID", http.StatusBadRequest)
		return
	}

	var expert models.Expert
	if err := h.db.First(&expert, expertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Expert not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error retrieving expert", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expert)
}

type expertRequest struct {
	Name         string                 `json:"name"`
	Title        string                 `json:"title"`
	Mode         string                 `json:"mode"`
	Bio          string                 `json:"bio"`
	Availability models.AvailabilityMap `json:"availability"`
}

func (h *ExpertHandler) CreateExpert(w http.ResponseWriter, r *http.Request) {
	var req expertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Title == "" {
		http.Error(w, "Name and title are required", http.StatusBadRequest)
		return
	}

	if !validMode(req.Mode) {
		http.Error(w, "Mode must be 'in-person' or 'remote'", http.StatusBadRequest)
		return
	}

	availability, err := normalizeAvailability(req.Availability)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	expert := models.Expert{
		Name:         req.Name,
		Title:        req.Title,
		Mode:         req.Mode,
		Bio:          req.Bio,
		Availability: datatypes.NewJSONType(availability),
	}

	if err := h.db.Create(&expert).Error; err != nil {
		http.Error(w, "Error creating expert", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(expert)
}

func (h *ExpertHandler) UpdateExpert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid expert ID", http.StatusBadRequest)
		return
	}

	var expert models.Expert
	if err := h.db.First(&expert, expertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Expert not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error retrieving expert", http.StatusInternalServerError)
		return
	}

	var req expertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if req.Name != "" {
		expert.Name = req.Name
	}
	if req.Title != "" {
		expert.Title = req.Title
	}
	if req.Mode != "" {
		if !validMode(req.Mode) {
			http.Error(w, "Mode must be 'in-person' or 'remote'", http.StatusBadRequest)
			return
		}
		expert.Mode = req.Mode
	}
	if req.Bio != "" {
		expert.Bio = req.Bio
	}

	if err := h.db.Save(&expert).Error; err != nil {
		http.Error(w, "Error updating expert", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expert)
}

// SetAvailability replaces the expert's entire availability map. Existing
// confirmed appointments are untouched even if their slot is removed from
// the configuration.
func (h *ExpertHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid expert ID", http.StatusBadRequest)
		return
	}

	var expert models.Expert
	if err := h.db.First(&expert, expertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Expert not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error retrieving expert", http.StatusInternalServerError)
		return
	}

	var req struct {
		Availability models.AvailabilityMap `json:"availability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	availability, err := normalizeAvailability(req.Availability)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	expert.Availability = datatypes.NewJSONType(availability)
	if err := h.db.Save(&expert).Error; err != nil {
		http.Error(w, "Error updating availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expert)
}

func (h *ExpertHandler) DeleteExpert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid expert ID", http.StatusBadRequest)
		return
	}

	result := h.db.Delete(&models.Expert{}, expertID)
	if result.Error != nil {
		http.Error(w, "Error deleting expert", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Expert not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Expert deleted successfully",
	})
}

func validMode(mode string) bool {
	return mode == models.ModeInPerson || mode == models.ModeRemote
}

// normalizeAvailability canonicalizes every date key and dedupes slot labels,
// so stored maps always use padded YYYY-MM-DD keys regardless of what the
// admin client sends. Padded and unpadded forms of the same date merge into
// one entry, and labels stay unique across the merge.
func normalizeAvailability(in models.AvailabilityMap) (models.AvailabilityMap, error) {
	out := make(models.AvailabilityMap, len(in))
	for rawDate, slots := range in {
		date, err := booking.NormalizeDate(rawDate)
		if err != nil {
			return nil, err
		}
		merged := out[date]
		seen := make(map[string]bool, len(merged)+len(slots))
		for _, s := range merged {
			seen[s] = true
		}
		for _, s := range slots {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			merged = append(merged, s)
		}
		out[date] = merged
	}
	return out, nil
}
