package models

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

var (
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
	Statuses   = []string{StatusPending, StatusInProgress, StatusCompleted}
)

// Report is one submission. Templated reports carry Answers; legacy ones
// carry Description, Priority, Status and Category instead.
type Report struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	UserID      int64     `gorm:"not null;index" json:"userId"`
	TeamID      string    `gorm:"not null;size:64;index" json:"teamId"`
	TemplateID  *string   `gorm:"size:64;index" json:"templateId,omitempty"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `json:"description,omitempty"`
	Answers     Answers   `gorm:"serializer:json;type:text" json:"answers,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Category    *string   `json:"category,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Report) IsTemplated() bool {
	return r.TemplateID != nil
}
