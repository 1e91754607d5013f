package job

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/adjoaboateng/CareerHub-server/cmd/utils"
	"github.com/adjoaboateng/CareerHub-server/service/notification"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type JobHandler struct {
	db       *gorm.DB
	notifier *notification.NotificationHandler
}

func NewJobHandler(db *gorm.DB, notifier *notification.NotificationHandler) *JobHandler {
	return &JobHandler{db: db, notifier: notifier}
}

func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/jobs", h.GetJobs).Methods("GET")
	router.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	router.HandleFunc("/jobs", utils.AdminOnly(h.CreateJob)).Methods("POST")
	router.HandleFunc("/jobs/{id}", utils.AdminOnly(h.DeleteJob)).Methods("DELETE")
}

// GetJobs lists job postings, newest first.
func (h *JobHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []models.JobListing
	if err := h.db.Order("posted_at DESC").Find(&jobs).Error; err != nil {
		http.Error(w, "Error retrieving jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	var job models.JobListing
	if err := h.db.First(&job, jobID).Error; err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

// CreateJob posts a job listing and notifies every registered device.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var jobRequest struct {
		Title       string `json:"title"`
		Company     string `json:"company"`
		Location    string `json:"location"`
		Deadline    string `json:"deadline"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&jobRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if jobRequest.Title == "" || jobRequest.Company == "" {
		http.Error(w, "Title and company are required", http.StatusBadRequest)
		return
	}

	job := models.JobListing{
		Title:       jobRequest.Title,
		Company:     jobRequest.Company,
		Location:    jobRequest.Location,
		Deadline:    jobRequest.Deadline,
		Description: jobRequest.Description,
		PostedAt:    time.Now(),
	}

	if err := h.db.Create(&job).Error; err != nil {
		http.Error(w, "Error creating job listing", http.StatusInternalServerError)
		return
	}

	go h.notifier.BroadcastToAll(
		"New Job Posted",
		fmt.Sprintf("%s at %s", job.Title, job.Company),
		map[string]string{
			"type":   "job_posted",
			"job_id": fmt.Sprint(job.ID),
		},
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	result := h.db.Delete(&models.JobListing{}, jobID)
	if result.Error != nil {
		http.Error(w, "Error deleting job listing", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Job listing deleted successfully",
	})
}
