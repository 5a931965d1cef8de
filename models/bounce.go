package models

import (
	"time"

	"gorm.io/gorm"
)

// Bounce records a delivery failure reported through the bounce mailbox
type Bounce struct {
	gorm.Model
	Email      string `gorm:"not null;index" json:"email"`
	CampaignID *uint  `json:"campaign_id,omitempty"`

	Type       string    `json:"type"` // hard, soft
	Detail     string    `json:"detail"`
	ReportedAt time.Time `json:"reported_at"`
}

// Suppression is an address that must never be mailed again
type Suppression struct {
	gorm.Model
	Email  string `gorm:"not null;uniqueIndex" json:"email"`
	Reason string `json:"reason"` // bounce, unsubscribe, manual
	Source string `json:"source"`
}
