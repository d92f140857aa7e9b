package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm/clause"

	"teamreports/models"
)

func (s *Store) CreateTemplate(ctx context.Context, tpl *models.Template) error {
	if _, err := s.GetTemplate(ctx, tpl.ID); err == nil {
		return fmt.Errorf("template %s: %w", tpl.ID, ErrDuplicateKey)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return translate(s.conn(ctx).Create(tpl).Error, "create template")
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var tpl models.Template
	if err := s.conn(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get template")
	}
	return &tpl, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]models.Template, error) {
	templates := []models.Template{}
	if err := s.conn(ctx).Order("created_at ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, translate(err, "list templates")
	}
	return templates, nil
}

func (s *Store) CountTemplates(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Template{}).Count(&n).Error; err != nil {
		return 0, translate(err, "count templates")
	}
	return n, nil
}

// EnsureTemplate inserts tpl unless a row with the same id already exists.
// It reports whether a row was written.
func (s *Store) EnsureTemplate(ctx context.Context, tpl *models.Template) (bool, error) {
	result := s.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(tpl)
	if result.Error != nil {
		return false, translate(result.Error, "ensure template")
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) requireTemplate(ctx context.Context, id string) error {
	if _, err := s.GetTemplate(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return constraintf("template %s does not exist", id)
		}
		return err
	}
	return nil
}
