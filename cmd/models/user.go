package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email                 string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash          string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role                  string    `gorm:"column:role;size:50;not null;default:student" json:"role"`
	Refresh               string    `gorm:"column:refresh_token;size:255" json:"-"`
	RefreshTokenExpiredAt time.Time `gorm:"column:refresh_token_expired_at" json:"-"`

	Profile *StudentProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// StudentProfile holds the career-profile fields a student edits on the
// profile screen. One row per user, created lazily on first save.
type StudentProfile struct {
	gorm.Model
	UserID        uint   `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	FullName      string `gorm:"column:full_name;size:255" json:"full_name"`
	StudentNumber string `gorm:"column:student_number;size:50" json:"student_id"`
	Program       string `gorm:"column:program;size:255" json:"program"`
	Year          string `gorm:"column:year;size:20" json:"year"`
	Skills        string `gorm:"column:skills;type:text" json:"skills"`
	Interests     string `gorm:"column:interests;type:text" json:"interests"`
	ProfileImage  string `gorm:"column:profile_image;size:500" json:"profile_image"`
	ResumeURL     string `gorm:"column:resume_url;size:500" json:"resume_url"`
}

type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null"`
	Token     string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
