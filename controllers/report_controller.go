package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/models"
	"teamreports/reports"
	"teamreports/store"
	"teamreports/utils"
)

type ReportController struct {
	Store   *store.Store
	Reports *reports.Service
	Logger  *logrus.Entry
}

func NewReportController(s *store.Store, svc *reports.Service, logger *logrus.Entry) *ReportController {
	return &ReportController{
		Store:   s,
		Reports: svc,
		Logger:  logger,
	}
}

// GetReports lists reports, optionally filtered by userId or teamId.
// Non-admin sessions only ever see their own reports.
func (rc *ReportController) GetReports(c *fiber.Ctx) error {
	var filter store.ReportFilter

	if raw := c.Query("userId"); raw != "" {
		userID, ok := utils.ParseInt64(raw)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid userId", nil)
		}
		filter.UserID = &userID
	}
	if teamID := c.Query("teamId"); teamID != "" {
		filter.TeamID = &teamID
	}
	if id, admin, ok := actingUser(c); ok && !admin {
		filter.UserID = &id
	}

	list, err := rc.Store.ListReports(c.UserContext(), filter)
	if err != nil {
		return storeErrorResponse(c, err, "Reports not found", "Failed to fetch reports")
	}
	return c.JSON(fiber.Map{"reports": list})
}

// CreateReport validates and stores a submission, then mirrors it to the sheet.
func (rc *ReportController) CreateReport(c *fiber.Ctx) error {
	var input struct {
		UserID       int64          `json:"userId"`
		TeamID       string         `json:"teamId"`
		TemplateID   string         `json:"templateId"`
		Title        string         `json:"title"`
		Description  string         `json:"description"`
		Priority     string         `json:"priority"`
		Status       string         `json:"status"`
		Category     string         `json:"category"`
		Answers      models.Answers `json:"answers"`
		TemplateData models.Answers `json:"templateData"`
		SyncToSheets *bool          `json:"syncToSheets"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if id, admin, ok := actingUser(c); ok {
		if input.UserID == 0 {
			input.UserID = id
		} else if input.UserID != id && !admin {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot submit reports for another user", nil)
		}
	}

	answers := input.Answers
	if answers == nil {
		answers = input.TemplateData
	}

	result, err := rc.Reports.Submit(c.UserContext(), reports.Submission{
		UserID:       input.UserID,
		TeamID:       input.TeamID,
		TemplateID:   input.TemplateID,
		Title:        input.Title,
		Description:  input.Description,
		Priority:     input.Priority,
		Status:       input.Status,
		Category:     input.Category,
		Answers:      answers,
		SyncToSheets: input.SyncToSheets,
	})
	if err != nil {
		return rc.submitError(c, err)
	}

	response := fiber.Map{"report": result.Report}
	if result.SyncWarning != "" {
		rc.Logger.WithField("report_id", result.Report.ID).Warn("Report created without sheet sync")
		response["sheetSync"] = fiber.Map{
			"success": false,
			"warning": result.SyncWarning,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// UpdateReport applies a partial update; the body carries the report id.
func (rc *ReportController) UpdateReport(c *fiber.Ctx) error {
	var input struct {
		ID          string         `json:"id"`
		Title       *string        `json:"title"`
		Description *string        `json:"description"`
		Priority    *string        `json:"priority"`
		Status      *string        `json:"status"`
		Category    *string        `json:"category"`
		Answers     models.Answers `json:"answers"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.ID == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Report ID is required", nil)
	}

	if id, admin, ok := actingUser(c); ok && !admin {
		existing, err := rc.Store.GetReport(c.UserContext(), input.ID)
		if err != nil {
			return storeErrorResponse(c, err, "Report not found", "Failed to update report")
		}
		if existing.UserID != id {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot update another user's report", nil)
		}
	}

	report, err := rc.Reports.Update(c.UserContext(), input.ID, store.ReportPatch{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		Category:    input.Category,
		Answers:     input.Answers,
	})
	if err != nil {
		return rc.submitError(c, err)
	}
	return c.JSON(fiber.Map{"report": report})
}

func (rc *ReportController) submitError(c *fiber.Ctx, err error) error {
	var verr *reports.ValidationError
	switch {
	case errors.As(err, &verr):
		return utils.FieldErrorResponse(c, verr.Message, verr.Fields)
	case errors.Is(err, reports.ErrTeamNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Team not found", nil)
	case errors.Is(err, reports.ErrUserNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
	case errors.Is(err, reports.ErrReportNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Report not found", nil)
	default:
		utils.LogError("report_submit_failed", err, map[string]interface{}{"path": c.Path()})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save report", err)
	}
}
