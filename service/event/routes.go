package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/adjoaboateng/CareerHub-server/cmd/utils"
	"github.com/adjoaboateng/CareerHub-server/service/notification"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type EventHandler struct {
	db       *gorm.DB
	notifier *notification.NotificationHandler
}

func NewEventHandler(db *gorm.DB, notifier *notification.NotificationHandler) *EventHandler {
	return &EventHandler{db: db, notifier: notifier}
}

func (h *EventHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/events", h.GetEvents).Methods("GET")
	router.HandleFunc("/events/{id}", h.GetEvent).Methods("GET")
	router.HandleFunc("/events", utils.AdminOnly(h.CreateEvent)).Methods("POST")
	router.HandleFunc("/events/{id}", utils.AdminOnly(h.DeleteEvent)).Methods("DELETE")
}

// GetEvents lists campus events ordered by date.
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	var events []models.Event
	if err := h.db.Order("date ASC").Find(&events).Error; err != nil {
		http.Error(w, "Error retrieving events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// CreateEvent posts an event and notifies every registered device.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var eventRequest struct {
		Name        string `json:"name"`
		Date        string `json:"date"`
		Time        string `json:"time"`
		Location    string `json:"location"`
		Mode        string `json:"mode"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&eventRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if eventRequest.Name == "" || eventRequest.Date == "" {
		http.Error(w, "Name and date are required", http.StatusBadRequest)
		return
	}

	event := models.Event{
		Name:        eventRequest.Name,
		Date:        eventRequest.Date,
		Time:        eventRequest.Time,
		Location:    eventRequest.Location,
		Mode:        eventRequest.Mode,
		Description: eventRequest.Description,
	}

	if err := h.db.Create(&event).Error; err != nil {
		http.Error(w, "Error creating event", http.StatusInternalServerError)
		return
	}

	go h.notifier.BroadcastToAll(
		"New Event",
		fmt.Sprintf("%s on %s", event.Name, event.Date),
		map[string]string{
			"type":     "event_posted",
			"event_id": fmt.Sprint(event.ID),
		},
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	result := h.db.Delete(&models.Event{}, eventID)
	if result.Error != nil {
		http.Error(w, "Error deleting event", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Event deleted successfully",
	})
}
