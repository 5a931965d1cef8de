package models

import "gorm.io/gorm"

// Setting is a single key/value application setting
type Setting struct {
	gorm.Model
	Key   string `gorm:"not null;uniqueIndex" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}
