package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"teamreports/models"
)

type ReportFilter struct {
	UserID *int64
	TeamID *string
}

// ReportPatch lists the fields a report may change after submission.
type ReportPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	Category    *string
	Answers     models.Answers
}

func (p ReportPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.Category == nil && p.Answers == nil
}

// CreateReport persists a report after checking that its user, team and
// template exist.
func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if _, err := s.GetUser(ctx, report.UserID); err != nil {
		return wrapMissing(err, "user %d does not exist", report.UserID)
	}
	if err := s.requireTeam(ctx, report.TeamID); err != nil {
		return err
	}
	if report.TemplateID != nil {
		if err := s.requireTemplate(ctx, *report.TemplateID); err != nil {
			return err
		}
	}
	return translate(s.conn(ctx).Create(report).Error, "create report")
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.conn(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get report")
	}
	return &report, nil
}

// ListReports returns reports newest first, narrowed by the filter.
func (s *Store) ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	query := s.conn(ctx).Order("created_at DESC")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}

	reports := []models.Report{}
	if err := query.Find(&reports).Error; err != nil {
		return nil, translate(err, "list reports")
	}
	return reports, nil
}

func (s *Store) CountReports(ctx context.Context, filter ReportFilter) (int64, error) {
	query := s.conn(ctx).Model(&models.Report{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, translate(err, "count reports")
	}
	return n, nil
}

func (s *Store) UpdateReport(ctx context.Context, id string, patch ReportPatch) (*models.Report, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return report, nil
	}

	if patch.Title != nil {
		report.Title = *patch.Title
	}
	if patch.Description != nil {
		report.Description = patch.Description
	}
	if patch.Priority != nil {
		report.Priority = patch.Priority
	}
	if patch.Status != nil {
		report.Status = patch.Status
	}
	if patch.Category != nil {
		report.Category = patch.Category
	}
	if patch.Answers != nil {
		report.Answers = patch.Answers
	}

	if err := s.conn(ctx).Save(report).Error; err != nil {
		return nil, translate(err, "update report")
	}
	return report, nil
}

func wrapMissing(err error, format string, args ...any) error {
	if errors.Is(err, ErrNotFound) {
		return constraintf(format, args...)
	}
	return err
}
