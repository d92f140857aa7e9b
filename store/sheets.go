package store

import (
	"context"

	"teamreports/models"
)

func (s *Store) GetSheetTab(ctx context.Context, name string) (*models.SheetTab, error) {
	var tab models.SheetTab
	if err := s.conn(ctx).First(&tab, "name = ?", name).Error; err != nil {
		return nil, translate(err, "get sheet tab")
	}
	return &tab, nil
}

// SaveSheetTab upserts the tab row with its current column list.
func (s *Store) SaveSheetTab(ctx context.Context, tab *models.SheetTab) error {
	return translate(s.conn(ctx).Save(tab).Error, "save sheet tab")
}
