package models

import "time"

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
)

// FieldValidation bounds numeric answers. Nil means unbounded.
type FieldValidation struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// TemplateField describes one form input. ID is the answer key.
type TemplateField struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Type        FieldType        `json:"type"`
	Required    bool             `json:"required"`
	Placeholder string           `json:"placeholder,omitempty"`
	Options     []string         `json:"options,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty"`
}

// Template is an ordered list of fields a report must capture.
type Template struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	Key         string          `gorm:"size:64;uniqueIndex" json:"key"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Fields      []TemplateField `gorm:"serializer:json;type:text" json:"fields"`
	CreatedBy   *int64          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Field returns the descriptor with the given id.
func (t *Template) Field(id string) (TemplateField, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return TemplateField{}, false
}
