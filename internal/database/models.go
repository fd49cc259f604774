package database

import (
	"time"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account in the reporting system. Students register
// themselves and start as pending; authority roles are provisioned by an
// administrator.
type User struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"size:255;not null" json:"name"`
	Email        string            `gorm:"uniqueIndex;size:255;not null" json:"email"` // acts as the college ID
	PasswordHash string            `gorm:"type:text;not null" json:"-"`
	Role         campus.Role       `gorm:"type:varchar(50);not null;default:'student';index" json:"role"`
	Status       campus.UserStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Phone        string            `gorm:"size:64" json:"phone,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Incident represents a single submitted safety report.
type Incident struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UUID        string `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Location    string `gorm:"type:varchar(128);not null;index" json:"location"`
	Type        string `gorm:"type:varchar(50);not null" json:"type"`
	Description string `gorm:"type:text;not null" json:"description"`
	VideoURL    string `gorm:"type:text" json:"video_url,omitempty"`
	ReportedBy  string `gorm:"type:varchar(255)" json:"reported_by"` // display name, may be "Anonymous"

	Status campus.Status `gorm:"type:varchar(50);not null;default:'reported';index" json:"status"`

	// Priority and DuplicateCount start at 1 and are only ever increased by
	// the duplicate engine when later reports corroborate this one.
	Priority       int `gorm:"not null;default:1" json:"priority"`
	DuplicateCount int `gorm:"not null;default:1" json:"duplicate_count"`

	// ReportedAt is the submission time used by the duplicate time window.
	ReportedAt time.Time `gorm:"not null;index" json:"reported_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Incident) TableName() string {
	return "incidents"
}

// BeforeCreate assigns the public UUID and fills counter defaults.
func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	if i.ReportedAt.IsZero() {
		i.ReportedAt = time.Now()
	}
	if i.Status == "" {
		i.Status = campus.StatusReported
	}
	if i.Priority < 1 {
		i.Priority = 1
	}
	if i.DuplicateCount < 1 {
		i.DuplicateCount = 1
	}
	return nil
}

// SlackSettings stores the escalation channel configuration.
type SlackSettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BotToken  string    `gorm:"type:text" json:"bot_token"`
	Channel   string    `gorm:"type:varchar(255)" json:"channel"`
	Enabled   bool      `gorm:"default:false" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SlackSettings) TableName() string {
	return "slack_settings"
}

// IsConfigured returns true if the bot token and channel are set.
func (s *SlackSettings) IsConfigured() bool {
	return s.BotToken != "" && s.Channel != ""
}

// IsActive returns true if Slack escalation is enabled and configured.
func (s *SlackSettings) IsActive() bool {
	return s.Enabled && s.IsConfigured()
}
