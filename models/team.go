package models

import "time"

// Team groups users and binds them to the template they fill in
type Team struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	TemplateID  *string   `gorm:"size:64;index" json:"templateId"`
	CreatedBy   int64     `gorm:"not null;index" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TeamWithMembers is the single-team read shape.
type TeamWithMembers struct {
	Team
	Members []User `json:"members"`
}

// TeamStats is a per-team aggregate for the admin overview.
type TeamStats struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	MemberCount int64  `json:"memberCount"`
	ReportCount int64  `json:"reportCount"`
}
