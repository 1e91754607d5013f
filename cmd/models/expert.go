package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ModeInPerson = "in-person"
	ModeRemote   = "remote"
)

// AvailabilityMap maps a calendar date (YYYY-MM-DD) to the ordered list of
// slot labels an expert offers on that date, e.g. {"2025-07-10": ["2:00pm", "3:30pm"]}.
type AvailabilityMap map[string][]string

type Expert struct {
	gorm.Model
	Name         string                              `gorm:"column:name;size:255;not null" json:"name"`
	Title        string                              `gorm:"column:title;size:255;not null" json:"title"`
	Mode         string                              `gorm:"column:mode;size:50;not null" json:"mode"`
	Bio          string                              `gorm:"column:bio;type:text" json:"bio"`
	Availability datatypes.JSONType[AvailabilityMap] `gorm:"column:availability" json:"availability"`
}

func (Expert) TableName() string {
	return "experts"
}
