package models

import (
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	Name        string `gorm:"column:name;size:255;not null" json:"name"`
	Date        string `gorm:"column:date;size:10;not null" json:"date"`
	Time        string `gorm:"column:time;size:10;not null" json:"time"`
	Location    string `gorm:"column:location;size:255;not null" json:"location"`
	Mode        string `gorm:"column:mode;size:50;not null" json:"mode"`
	Description string `gorm:"column:description;type:text;not null" json:"description"`
}
