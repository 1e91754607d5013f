package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/adjoaboateng/CareerHub-server/cmd/utils"
	"github.com/adjoaboateng/CareerHub-server/service/ws"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type BookingHandler struct {
	db  *gorm.DB
	svc *Service
	hub *ws.Hub
}

func NewBookingHandler(db *gorm.DB, hub *ws.Hub) *BookingHandler {
	return &BookingHandler{
		db:  db,
		svc: NewService(db),
		hub: hub,
	}
}

func (h *BookingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/experts/{expertId}/slots", h.GetAvailableSlots).Methods("GET")
	router.HandleFunc("/appointments/book", utils.AuthMiddleware(h.BookAppointment)).Methods("POST")
	router.HandleFunc("/appointments/mine", utils.AuthMiddleware(h.GetMyAppointments)).Methods("GET")
	router.HandleFunc("/appointments/{id}", utils.AuthMiddleware(h.CancelAppointment)).Methods("DELETE")
	router.HandleFunc("/appointments", utils.AdminOnly(h.GetAllAppointments)).Methods("GET")
}

// GetAvailableSlots returns the open slots for an expert on a given date.
func (h *BookingHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, err := strconv.ParseUint(vars["expertId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid expert ID", http.StatusBadRequest)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}

	date, err = NormalizeDate(date)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	slots, err := h.svc.ListAvailableSlots(uint(expertID), date)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"expert_id": expertID,
		"date":      date,
		"slots":     slots,
	})
}

// BookAppointment reserves a slot for the authenticated student.
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var bookingRequest struct {
		ExpertID uint   `json:"expert_id"`
		Date     string `json:"date"`
		Slot     string `json:"slot"`
		Topic    string `json:"topic"`
	}

	if err := json.NewDecoder(r.Body).Decode(&bookingRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var student models.User
	if err := h.db.First(&student, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return
	}

	appointment, err := h.svc.BookSlot(BookingRequest{
		StudentID:    student.ID,
		StudentEmail: student.Email,
		ExpertID:     bookingRequest.ExpertID,
		Date:         bookingRequest.Date,
		Slot:         bookingRequest.Slot,
		Topic:        bookingRequest.Topic,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appointment)
}

// GetMyAppointments lists the authenticated student's appointments.
func (h *BookingHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	appointments, err := h.svc.StudentAppointments(userID)
	if err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

// CancelAppointment deletes an appointment. Students may cancel their own;
// admins may delete any appointment unconditionally.
func (h *BookingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid appointment ID", http.StatusBadRequest)
		return
	}

	isAdmin := utils.IsAdmin(r)

	if err := h.svc.CancelAppointment(uint(appointmentID), userID, isAdmin); err != nil {
		writeBookingError(w, err)
		return
	}

	// No notification is sent to the other party on cancellation; admins get
	// a hub announcement so open moderation views refresh.
	if isAdmin {
		h.hub.Announce(ws.Notice{
			Type:  "appointment_deleted",
			Title: "Appointment removed",
			Body:  "An appointment was removed by an administrator.",
			Data:  map[string]interface{}{"appointment_id": appointmentID},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Appointment canceled successfully",
	})
}

// GetAllAppointments returns every appointment for the admin view, newest
// booking first.
func (h *BookingHandler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 100

	appointments, total, err := h.svc.AllAppointments(page, pageSize)
	if err != nil {
		http.Error(w, "Error retrieving appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"total_pages":  (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// writeBookingError maps service errors onto HTTP statuses. Unrecognized
// errors are backend failures; their message passes through verbatim.
func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTopicRequired), errors.Is(err, ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSlotUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrExpertNotFound), errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotAppointmentOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
