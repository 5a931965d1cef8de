package models

import (
	"time"

	"gorm.io/gorm"
)

// RecipientList represents a named list of recipient addresses
type RecipientList struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"` // manual, paste, csv, api

	// Statistics
	RecipientCount int        `gorm:"default:0" json:"recipient_count"`
	ActiveCount    int        `gorm:"default:0" json:"active_count"`
	BouncedCount   int        `gorm:"default:0" json:"bounced_count"`
	CleanedAt      *time.Time `json:"cleaned_at"`

	// Relations
	Recipients []Recipient `gorm:"foreignKey:ListID" json:"recipients,omitempty"`
}

// Recipient represents a single address inside a list
type Recipient struct {
	gorm.Model
	ListID uint `gorm:"not null;index" json:"list_id"`

	Email     string `gorm:"not null;index" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Status
	Status       string     `gorm:"default:'active';index" json:"status"` // active, invalid, bounced, unsubscribed, suppressed
	StatusReason string     `json:"status_reason,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at"`

	Source string `json:"source"`
}
