// Package reports turns raw submissions into validated, persisted reports and
// fans them out to the spreadsheet mirror and the live feed.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"teamreports/metrics"
	"teamreports/models"
	"teamreports/sheets"
	"teamreports/store"
	"teamreports/utils"
)

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrReportNotFound = errors.New("report not found")
)

const defaultSyncTimeout = 15 * time.Second

// Submission is a report as the client sent it.
type Submission struct {
	UserID       int64
	TeamID       string
	TemplateID   string
	Title        string
	Description  string
	Priority     string
	Status       string
	Category     string
	Answers      models.Answers
	SyncToSheets *bool
}

type Result struct {
	Report *models.Report
	// SyncWarning is set when the report was stored but the sheet mirror failed.
	SyncWarning string
}

type Store interface {
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	CreateReport(ctx context.Context, report *models.Report) error
	UpdateReport(ctx context.Context, id string, patch store.ReportPatch) (*models.Report, error)
}

type TemplateSource interface {
	Get(idOrKey string) (*models.Template, error)
	EnsureSynced(ctx context.Context) error
}

type SheetSyncer interface {
	Sync(ctx context.Context, e sheets.Entry) error
}

// Publisher receives every created report. Delivery is best effort.
type Publisher interface {
	Publish(report *models.Report)
}

type Service struct {
	store       Store
	templates   TemplateSource
	syncer      SheetSyncer
	syncTimeout time.Duration
	feed        Publisher
}

func NewService(store Store, templates TemplateSource) *Service {
	return &Service{store: store, templates: templates, syncTimeout: defaultSyncTimeout}
}

// WithSyncer enables the spreadsheet mirror. A non-positive timeout keeps the default.
func (s *Service) WithSyncer(syncer SheetSyncer, timeout time.Duration) *Service {
	s.syncer = syncer
	if timeout > 0 {
		s.syncTimeout = timeout
	}
	return s
}

func (s *Service) WithPublisher(p Publisher) *Service {
	s.feed = p
	return s
}

// Submit validates sub, persists the report and mirrors it to the sheet.
// Validation problems come back as *ValidationError; a failed mirror does not
// fail the call and is reported through Result.SyncWarning.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	missing := map[string]string{}
	if sub.UserID == 0 {
		missing["userId"] = "userId is required"
	}
	if strings.TrimSpace(sub.TeamID) == "" {
		missing["teamId"] = "teamId is required"
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "Missing required fields", Fields: missing}
	}

	team, err := s.store.GetTeam(ctx, sub.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	user, err := s.store.GetUser(ctx, sub.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	tpl, err := s.resolveTemplate(sub, team)
	if err != nil {
		return nil, err
	}

	var report *models.Report
	if tpl != nil {
		report, err = s.buildTemplated(sub, tpl)
	} else {
		report, err = s.buildLegacy(sub)
	}
	if err != nil {
		metrics.ReportValidationFailures.Inc()
		return nil, err
	}
	report.UserID = user.TelegramID
	report.TeamID = team.ID

	if tpl != nil {
		if err := s.templates.EnsureSynced(ctx); err != nil {
			return nil, fmt.Errorf("sync templates: %w", err)
		}
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	shape := "legacy"
	if tpl != nil {
		shape = "templated"
	}
	metrics.ReportsSubmitted.WithLabelValues(shape).Inc()
	utils.LogEvent("report_submitted", map[string]interface{}{
		"report_id": report.ID,
		"team_id":   team.ID,
		"user_id":   user.TelegramID,
		"shape":     shape,
	})

	result := &Result{Report: report}
	if sub.SyncToSheets == nil || *sub.SyncToSheets {
		result.SyncWarning = s.mirror(ctx, sheets.Entry{Report: report, Team: team, User: user, Template: tpl})
	}
	if s.feed != nil {
		s.feed.Publish(report)
	}
	return result, nil
}

// Update applies a partial patch to an existing report. The patch must keep
// the report valid for its shape: templated reports take answers, which are
// checked against the template again, and legacy reports take priority and
// status.
func (s *Service) Update(ctx context.Context, id string, patch store.ReportPatch) (*models.Report, error) {
	current, err := s.store.GetReport(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrReportNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	errs := map[string]string{}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		errs["title"] = "Title cannot be empty"
	}
	if current.IsTemplated() {
		if patch.Priority != nil {
			errs["priority"] = "Priority does not apply to templated reports"
		}
		if patch.Status != nil {
			errs["status"] = "Status does not apply to templated reports"
		}
		if patch.Answers != nil {
			for k, v := range s.checkPatchedAnswers(*current.TemplateID, patch.Answers) {
				errs[k] = v
			}
		}
	} else {
		if patch.Answers != nil {
			errs["answers"] = "Answers only apply to templated reports"
		}
		if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
			errs["description"] = "Description cannot be empty"
		}
		if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
			errs["category"] = "Category cannot be empty"
		}
		if patch.Priority != nil && !utils.CheckVar(*patch.Priority, utils.OneOfTag(models.Priorities)) {
			errs["priority"] = "Priority must be one of: " + strings.Join(models.Priorities, ", ")
		}
		if patch.Status != nil && !utils.CheckVar(*patch.Status, utils.OneOfTag(models.Statuses)) {
			errs["status"] = "Status must be one of: " + strings.Join(models.Statuses, ", ")
		}
	}
	if len(errs) > 0 {
		metrics.ReportValidationFailures.Inc()
		return nil, &ValidationError{Message: "Invalid report update", Fields: errs}
	}

	report, err := s.store.UpdateReport(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	return report, nil
}

// checkPatchedAnswers validates a replacement answer set against the
// report's template.
func (s *Service) checkPatchedAnswers(templateID string, answers models.Answers) map[string]string {
	if answers.NonBlank() == 0 {
		return map[string]string{"answers": "Answers are required"}
	}
	tpl, err := s.templates.Get(templateID)
	if err != nil {
		return map[string]string{"answers": "Template is no longer available, answers cannot be changed"}
	}
	return ValidateAnswers(tpl, answers)
}

func (s *Service) resolveTemplate(sub Submission, team *models.Team) (*models.Template, error) {
	if sub.TemplateID != "" {
		tpl, err := s.templates.Get(sub.TemplateID)
		if err != nil {
			return nil, fieldError("templateId", "template not found")
		}
		return tpl, nil
	}
	if team.TemplateID == nil || *team.TemplateID == "" {
		return nil, nil
	}
	tpl, err := s.templates.Get(*team.TemplateID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"team_id":     team.ID,
			"template_id": *team.TemplateID,
		}).Warn("Team template no longer in catalog, using the default report shape")
		return nil, nil
	}
	return tpl, nil
}

func (s *Service) buildTemplated(sub Submission, tpl *models.Template) (*models.Report, error) {
	if sub.Answers.NonBlank() == 0 {
		return nil, fieldError("answers", "Answers are required")
	}
	if errs := ValidateAnswers(tpl, sub.Answers); len(errs) > 0 {
		return nil, &ValidationError{Message: "Validation failed", Fields: errs}
	}

	report := &models.Report{
		TemplateID: &tpl.ID,
		Title:      templatedTitle(sub, tpl),
		Answers:    sub.Answers,
		Category:   optional(sub.Category),
	}
	if d := strings.TrimSpace(sub.Description); d != "" {
		report.Description = &d
	}
	return report, nil
}

func (s *Service) buildLegacy(sub Submission) (*models.Report, error) {
	if errs := validateLegacy(&sub); len(errs) > 0 {
		return nil, &ValidationError{Message: "Validation failed", Fields: errs}
	}
	priority := sub.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	status := sub.Status
	if status == "" {
		status = models.StatusPending
	}
	description := strings.TrimSpace(sub.Description)
	return &models.Report{
		Title:       strings.TrimSpace(sub.Title),
		Description: &description,
		Priority:    &priority,
		Status:      &status,
		Category:    optional(sub.Category),
	}, nil
}

func (s *Service) mirror(ctx context.Context, e sheets.Entry) string {
	if s.syncer == nil {
		metrics.SheetSync.WithLabelValues("skipped").Inc()
		return ""
	}

	syncCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()
	if err := s.syncer.Sync(syncCtx, e); err != nil {
		metrics.SheetSync.WithLabelValues("failed").Inc()
		utils.LogError("sheet_sync_failed", err, map[string]interface{}{
			"report_id": e.Report.ID,
			"team_id":   e.Team.ID,
		})
		return "Report saved but could not be synced to Google Sheets"
	}
	metrics.SheetSync.WithLabelValues("ok").Inc()
	return ""
}

// templatedTitle prefers a "title" or "event_name" answer, then the request
// title, then the template name.
func templatedTitle(sub Submission, tpl *models.Template) string {
	for _, id := range []string{"title", "event_name"} {
		if v := strings.TrimSpace(sub.Answers.Get(id).String()); v != "" {
			return v
		}
	}
	if t := strings.TrimSpace(sub.Title); t != "" {
		return t
	}
	return tpl.Name + " report"
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
