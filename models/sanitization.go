package models

import (
	"time"

	"gorm.io/gorm"
)

// SanitizationJob represents one asynchronous list-cleaning run
type SanitizationJob struct {
	gorm.Model

	Name   string `json:"name"`
	ListID *uint  `gorm:"index" json:"list_id,omitempty"` // set when cleaning a stored list

	Status      string     `gorm:"default:'pending';index" json:"status"` // pending, processing, completed, failed
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Error       string     `json:"error,omitempty"`

	// Options the job ran with
	CheckFormat      bool `json:"check_format"`
	CheckDisposable  bool `json:"check_disposable"`
	CheckMX          bool `json:"check_mx"`
	RemoveDuplicates bool `json:"remove_duplicates"`

	// Progress and results
	TotalCount     int `gorm:"default:0" json:"total_count"`
	ProcessedCount int `gorm:"default:0" json:"processed_count"`
	ValidCount     int `gorm:"default:0" json:"valid_count"`
	InvalidCount   int `gorm:"default:0" json:"invalid_count"`
	DuplicateCount int `gorm:"default:0" json:"duplicate_count"`

	// Relations
	Entries []SanitizationEntry `gorm:"foreignKey:JobID" json:"entries,omitempty"`
}

// SanitizationEntry stores the classification of a single address within a job
type SanitizationEntry struct {
	gorm.Model
	JobID uint `gorm:"not null;index" json:"job_id"`

	Email   string `gorm:"not null" json:"email"`
	IsValid bool   `gorm:"default:false;index" json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
}
