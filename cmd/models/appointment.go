package models

import (
	"time"

	"gorm.io/gorm"
)

const AppointmentStatusConfirmed = "confirmed"

// Appointment marks a slot as taken. The composite unique index on
// (expert_id, date, slot) is what guarantees at most one confirmed booking
// per slot; the pre-insert conflict check only exists to give the student a
// friendly error before the insert is attempted.
//
// ExpertName and Mode are snapshots of the expert record at booking time,
// not live references.
type Appointment struct {
	gorm.Model
	StudentID    uint      `gorm:"column:student_id;not null;index" json:"student_id"`
	StudentEmail string    `gorm:"column:student_email;size:255;not null" json:"student_email"`
	ExpertID     uint      `gorm:"column:expert_id;not null;uniqueIndex:idx_expert_date_slot" json:"expert_id"`
	ExpertName   string    `gorm:"column:expert_name;size:255;not null" json:"expert_name"`
	Topic        string    `gorm:"column:topic;type:text;not null" json:"topic"`
	Date         string    `gorm:"column:date;size:10;not null;uniqueIndex:idx_expert_date_slot" json:"date"`
	Slot         string    `gorm:"column:slot;size:50;not null;uniqueIndex:idx_expert_date_slot" json:"slot"`
	Mode         string    `gorm:"column:mode;size:50;not null" json:"mode"`
	Status       string    `gorm:"column:status;size:20;not null;default:confirmed" json:"status"`
	BookedAt     time.Time `gorm:"column:booked_at;not null" json:"booked_at"`

	Student *User   `gorm:"foreignKey:StudentID" json:"-"`
	Expert  *Expert `gorm:"foreignKey:ExpertID" json:"-"`
}
