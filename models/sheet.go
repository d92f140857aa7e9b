package models

import "time"

// SheetTab records a spreadsheet tab and its header columns. Columns only grow.
type SheetTab struct {
	Name      string    `gorm:"primaryKey;size:128" json:"name"`
	Columns   []string  `gorm:"serializer:json;type:text" json:"columns"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MergeColumns appends every label not yet present, keeping first-seen order.
// It reports whether anything was added.
func (s *SheetTab) MergeColumns(labels ...string) bool {
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		seen[c] = struct{}{}
	}
	grew := false
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		s.Columns = append(s.Columns, l)
		grew = true
	}
	return grew
}
