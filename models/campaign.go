package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign represents an email campaign sent to a recipient list
type Campaign struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Subject     string `gorm:"not null" json:"subject"`
	Description string `json:"description"`
	PreviewText string `json:"preview_text"`
	FromName    string `json:"from_name"`
	FromEmail   string `gorm:"not null" json:"from_email"`

	TemplateID uint `gorm:"not null;index" json:"template_id"`
	ListID     uint `gorm:"not null;index" json:"list_id"`

	// Scheduling
	Status      string     `gorm:"default:'draft'" json:"status"` // draft, scheduled, sending, sent, canceled
	ScheduledAt *time.Time `json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Tracking settings
	TrackOpens  bool `gorm:"default:true" json:"track_opens"`
	TrackClicks bool `gorm:"default:true" json:"track_clicks"`

	// Statistics (denormalized for the dashboard)
	TotalRecipients int `gorm:"default:0" json:"total_recipients"`
	SentCount       int `gorm:"default:0" json:"sent_count"`
	FailedCount     int `gorm:"default:0" json:"failed_count"`
	OpenCount       int `gorm:"default:0" json:"open_count"`
	ClickCount      int `gorm:"default:0" json:"click_count"`
	BounceCount     int `gorm:"default:0" json:"bounce_count"`

	// Relations
	Template Template        `json:"template,omitempty"`
	List     RecipientList   `gorm:"foreignKey:ListID" json:"list,omitempty"`
	Events   []CampaignEvent `gorm:"foreignKey:CampaignID" json:"events,omitempty"`
}

// CampaignEvent records a single tracked interaction with a campaign email
type CampaignEvent struct {
	gorm.Model
	CampaignID uint   `gorm:"not null;index" json:"campaign_id"`
	Email      string `gorm:"index" json:"email"`
	Type       string `gorm:"not null;index" json:"type"` // open, click, bounce
	URL        string `json:"url,omitempty"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
}
