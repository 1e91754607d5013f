package notification

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/adjoaboateng/CareerHub-server/cmd/utils"
	"github.com/adjoaboateng/CareerHub-server/service/ws"
	"github.com/gorilla/mux"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	db         *gorm.DB
	expoClient *expo.PushClient
	hub        *ws.Hub
}

func NewNotificationHandler(db *gorm.DB, hub *ws.Hub) *NotificationHandler {
	return &NotificationHandler{
		db:         db,
		expoClient: expo.NewPushClient(nil),
		hub:        hub,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/devices", utils.AuthMiddleware(h.RegisterDevice)).Methods("POST")
	router.HandleFunc("/devices", utils.AuthMiddleware(h.GetUserDevices)).Methods("GET")
	router.HandleFunc("/devices/{id}", utils.AuthMiddleware(h.UnregisterDevice)).Methods("DELETE")
	router.HandleFunc("/notifications/history", utils.AdminOnly(h.GetNotificationHistory)).Methods("GET")
	router.HandleFunc("/notifications/broadcast", utils.AdminOnly(h.SendBroadcast)).Methods("POST")
}

// RegisterDevice stores an Expo push token for the authenticated user.
// Re-registering the same token is a no-op rather than an error, since the
// mobile app re-sends its token on every launch.
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var deviceRequest struct {
		Token      string `json:"token"`
		DeviceType string `json:"device_type"`
		DeviceName string `json:"device_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&deviceRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if _, err := expo.NewExponentPushToken(deviceRequest.Token); err != nil {
		http.Error(w, "Invalid Expo push token", http.StatusBadRequest)
		return
	}

	var existing models.Device
	err = h.db.Where("token = ? AND user_id = ?", deviceRequest.Token, userID).First(&existing).Error
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(existing)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	device := models.Device{
		Token:      deviceRequest.Token,
		UserID:     userID,
		DeviceType: deviceRequest.DeviceType,
		DeviceName: deviceRequest.DeviceName,
	}

	if err := h.db.Create(&device).Error; err != nil {
		http.Error(w, "Error registering device", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(device)
}

func (h *NotificationHandler) GetUserDevices(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var devices []models.Device
	if err := h.db.Where("user_id = ?", userID).Find(&devices).Error; err != nil {
		http.Error(w, "Error retrieving devices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(devices)
}

func (h *NotificationHandler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	deviceID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid device ID", http.StatusBadRequest)
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", deviceID, userID).Delete(&models.Device{})
	if result.Error != nil {
		http.Error(w, "Error removing device", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Device removed successfully",
	})
}

func (h *NotificationHandler) GetNotificationHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 50

	var total int64
	if err := h.db.Model(&models.NotificationHistory{}).Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving history", http.StatusInternalServerError)
		return
	}

	var history []models.NotificationHistory
	err := h.db.Order("sent_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&history).Error
	if err != nil {
		http.Error(w, "Error retrieving history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": history,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
		"total_pages":   (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// SendBroadcast lets an admin push a free-form announcement to every device.
func (h *NotificationHandler) SendBroadcast(w http.ResponseWriter, r *http.Request) {
	var broadcastRequest struct {
		Title string            `json:"title"`
		Body  string            `json:"body"`
		Data  map[string]string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&broadcastRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if broadcastRequest.Title == "" || broadcastRequest.Body == "" {
		http.Error(w, "Title and body are required", http.StatusBadRequest)
		return
	}

	go h.BroadcastToAll(broadcastRequest.Title, broadcastRequest.Body, broadcastRequest.Data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Broadcast queued",
	})
}

// BroadcastToAll pushes a notification to every registered device and mirrors
// it onto the websocket hub. Errors are logged, never returned: callers fire
// this from a goroutine after the triggering write has already committed.
func (h *NotificationHandler) BroadcastToAll(title, body string, data map[string]string) {
	var devices []models.Device
	if err := h.db.Find(&devices).Error; err != nil {
		log.Printf("error loading devices for broadcast: %v", err)
		return
	}

	status := "sent"
	if len(devices) == 0 {
		status = "no_devices"
	} else if err := h.sendExpoNotification(devices, title, body, data); err != nil {
		log.Printf("error sending push notifications: %v", err)
		status = "failed"
	}

	history := models.NotificationHistory{
		Title:  title,
		Body:   body,
		Data:   mapToJSON(data),
		Status: status,
		SentAt: time.Now(),
	}
	if err := h.db.Create(&history).Error; err != nil {
		log.Printf("error recording notification history: %v", err)
	}

	noticeData := make(map[string]interface{}, len(data))
	for k, v := range data {
		noticeData[k] = v
	}
	h.hub.Announce(ws.Notice{
		Type:  "announcement",
		Title: title,
		Body:  body,
		Data:  noticeData,
	})
}

func (h *NotificationHandler) sendExpoNotification(devices []models.Device, title, body string, data map[string]string) error {
	var pushTokens []expo.ExponentPushToken
	var invalidTokens []string

	for _, device := range devices {
		token, err := expo.NewExponentPushToken(device.Token)
		if err != nil {
			invalidTokens = append(invalidTokens, device.Token)
			continue
		}
		pushTokens = append(pushTokens, token)
	}

	if len(invalidTokens) > 0 {
		h.cleanupInvalidTokens(invalidTokens)
	}

	if len(pushTokens) == 0 {
		return nil
	}

	// Expo caps a single publish at 100 messages
	for start := 0; start < len(pushTokens); start += 100 {
		end := start + 100
		if end > len(pushTokens) {
			end = len(pushTokens)
		}

		message := expo.PushMessage{
			To:       pushTokens[start:end],
			Title:    title,
			Body:     body,
			Data:     data,
			Sound:    "default",
			Priority: expo.DefaultPriority,
		}

		response, err := h.expoClient.Publish(&message)
		if err != nil {
			return err
		}
		if err := response.ValidateResponse(); err != nil {
			log.Printf("expo rejected some messages: %v", err)
		}
	}

	return nil
}

// cleanupInvalidTokens removes device rows whose tokens Expo no longer accepts.
func (h *NotificationHandler) cleanupInvalidTokens(tokens []string) {
	if err := h.db.Where("token IN ?", tokens).Delete(&models.Device{}).Error; err != nil {
		log.Printf("error cleaning up invalid tokens: %v", err)
	}
}

func mapToJSON(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(b)
}
