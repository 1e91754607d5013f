package models

import (
	"time"

	"gorm.io/gorm"
)

type JobListing struct {
	gorm.Model
	Title       string    `gorm:"column:title;size:255;not null" json:"title"`
	Company     string    `gorm:"column:company;size:255;not null" json:"company"`
	Location    string    `gorm:"column:location;size:255;not null" json:"location"`
	Deadline    string    `gorm:"column:deadline;size:10;not null" json:"deadline"`
	Description string    `gorm:"column:description;type:text;not null" json:"description"`
	PostedAt    time.Time `gorm:"column:posted_at;not null" json:"posted_at"`
}

func (JobListing) TableName() string {
	return "job_listings"
}
