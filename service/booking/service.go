package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"gorm.io/gorm"
)

// Expected failure modes of the booking service. Handlers map these to HTTP
// statuses; anything else is treated as a backend failure and passed through.
var (
	ErrTopicRequired       = errors.New("topic is required")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrSlotUnavailable     = errors.New("this slot has already been booked")
	ErrExpertNotFound      = errors.New("expert not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotAppointmentOwner = errors.New("appointment belongs to another student")
)

// Service implements slot availability and appointment booking on top of the
// database handle it is given. It holds no other state, so tests can run it
// against an in-memory database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// NormalizeDate canonicalizes a calendar date to YYYY-MM-DD. The mobile
// client historically produced unpadded keys like "2025-7-6", so both forms
// are accepted.
func NormalizeDate(raw string) (string, error) {
	t, err := time.Parse("2006-1-2", strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format("2006-01-02"), nil
}

// ListAvailableSlots returns the expert's configured slots for the date minus
// the slots of currently confirmed appointments, preserving configured order.
// An unknown expert or a date with no configured slots yields an empty list,
// not an error.
func (s *Service) ListAvailableSlots(expertID uint, date string) ([]string, error) {
	date, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	var expert models.Expert
	if err := s.db.First(&expert, expertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	return s.AvailableSlotsFor(&expert, date)
}

// AvailableSlotsFor computes open slots for an already-loaded expert record.
// The expert listing endpoint uses this to avoid refetching each expert.
func (s *Service) AvailableSlotsFor(expert *models.Expert, date string) ([]string, error) {
	configured := dedupeSlots(expert.Availability.Data()[date])
	if len(configured) == 0 {
		return []string{}, nil
	}

	var bookedSlots []string
	err := s.db.Model(&models.Appointment{}).
		Where("expert_id = ? AND date = ? AND status = ?", expert.ID, date, models.AppointmentStatusConfirmed).
		Pluck("slot", &bookedSlots).Error
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(bookedSlots))
	for _, slot := range bookedSlots {
		taken[slot] = true
	}

	available := make([]string, 0, len(configured))
	for _, slot := range configured {
		if !taken[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

// BookingRequest carries everything needed to reserve a slot. StudentID and
// StudentEmail come from the authenticated session, never from the client body.
type BookingRequest struct {
	StudentID    uint
	StudentEmail string
	ExpertID     uint
	Date         string
	Slot         string
	Topic        string
}

// BookSlot reserves a slot for a student. The conflict check runs inside a
// transaction keyed by (expert, date, slot), and the composite unique index on
// appointments backstops the check: if two requests race past it, the second
// insert fails with a unique violation and surfaces as ErrSlotUnavailable.
func (s *Service) BookSlot(req BookingRequest) (*models.Appointment, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}

	date, err := NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var expert models.Expert
	if err := tx.First(&expert, req.ExpertID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpertNotFound
		}
		return nil, err
	}

	if !slotConfigured(expert.Availability.Data()[date], req.Slot) {
		tx.Rollback()
		return nil, ErrSlotUnavailable
	}

	var existing models.Appointment
	err = tx.Where("expert_id = ? AND date = ? AND slot = ? AND status = ?",
		req.ExpertID, date, req.Slot, models.AppointmentStatusConfirmed).
		First(&existing).Error
	if err == nil {
		tx.Rollback()
		return nil, ErrSlotUnavailable
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	appointment := models.Appointment{
		StudentID:    req.StudentID,
		StudentEmail: req.StudentEmail,
		ExpertID:     expert.ID,
		ExpertName:   expert.Name,
		Topic:        topic,
		Date:         date,
		Slot:         req.Slot,
		Mode:         expert.Mode,
		Status:       models.AppointmentStatusConfirmed,
		BookedAt:     time.Now(),
	}

	if err := tx.Create(&appointment).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &appointment, nil
}

// CancelAppointment deletes an appointment, freeing its slot immediately.
// Students may only cancel their own appointments; admins may delete any.
// Cancellation is a hard delete so the unique index releases the slot.
func (s *Service) CancelAppointment(appointmentID, requesterID uint, isAdmin bool) error {
	var appointment models.Appointment
	if err := s.db.First(&appointment, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}

	if !isAdmin && appointment.StudentID != requesterID {
		return ErrNotAppointmentOwner
	}

	return s.db.Unscoped().Delete(&appointment).Error
}

// StudentAppointments lists a student's appointments, most recent booking first.
func (s *Service) StudentAppointments(studentID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.Where("student_id = ?", studentID).
		Order("booked_at DESC").
		Find(&appointments).Error
	return appointments, err
}

// AllAppointments returns a page of every appointment, newest booking first,
// for the admin moderation view.
func (s *Service) AllAppointments(page, pageSize int) ([]models.Appointment, int64, error) {
	var total int64
	if err := s.db.Model(&models.Appointment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []models.Appointment
	err := s.db.Order("booked_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&appointments).Error
	return appointments, total, err
}

func slotConfigured(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// dedupeSlots drops repeated labels keeping first occurrence, since slot
// labels within one date must be unique.
func dedupeSlots(slots []string) []string {
	if len(slots) < 2 {
		return slots
	}
	seen := make(map[string]bool, len(slots))
	out := slots[:0:0]
	for _, s := range slots {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Both Postgres and SQLite report unique index violations through the error
// string; GORM does not expose a portable error type for them.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}
