package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/models"
	"teamreports/sheets"
	"teamreports/store"
	"teamreports/templates"
	"teamreports/utils"
)

type SheetsController struct {
	SpreadsheetID string

	// Syncer is nil when Google Sheets is not configured.
	Syncer    *sheets.Syncer
	Store     *store.Store
	Templates *templates.Registry
	Logger    *logrus.Entry
}

func NewSheetsController(spreadsheetID string, syncer *sheets.Syncer, s *store.Store, registry *templates.Registry, logger *logrus.Entry) *SheetsController {
	return &SheetsController{
		SpreadsheetID: spreadsheetID,
		Syncer:        syncer,
		Store:         s,
		Templates:     registry,
		Logger:        logger,
	}
}

func (sc *SheetsController) enabled() bool {
	return sc.Syncer != nil && sc.SpreadsheetID != ""
}

// GetSheetURL links the dashboard to the spreadsheet, scrolled to the tab a
// team's reports land in when ?teamId= or ?team= names one. "#" is returned
// when sync is off. ?redirect=true answers with a redirect instead.
func (sc *SheetsController) GetSheetURL(c *fiber.Ctx) error {
	if !sc.enabled() {
		return c.JSON(fiber.Map{"url": "#", "configured": false})
	}

	tab, err := sc.teamTab(c)
	if err != nil {
		return storeErrorResponse(c, err, "Team not found", "Failed to get Google Sheets URL")
	}
	url := sheets.SpreadsheetURL(sc.SpreadsheetID, tab)

	if c.Query("redirect") == "true" {
		return c.Redirect(url, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"url":           url,
		"configured":    true,
		"spreadsheetId": sc.SpreadsheetID,
	})
}

// teamTab resolves the tab for the requested team: its template's tab when it
// has one in the catalog, its legacy tab otherwise. A ?team= name with no
// stored team still maps to the legacy tab name.
func (sc *SheetsController) teamTab(c *fiber.Ctx) (string, error) {
	var team *models.Team
	if id := c.Query("teamId"); id != "" {
		t, err := sc.Store.GetTeam(c.UserContext(), id)
		if err != nil {
			return "", err
		}
		team = t
	} else if name := c.Query("team"); name != "" {
		t, err := sc.Store.FindTeamByName(c.UserContext(), name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			team = &models.Team{Name: name}
		case err != nil:
			return "", err
		default:
			team = t
		}
	}
	if team == nil {
		return "", nil
	}

	var tpl *models.Template
	if team.TemplateID != nil && *team.TemplateID != "" {
		tpl, _ = sc.Templates.Get(*team.TemplateID)
	}
	return sheets.TabName(sheets.Entry{Team: team, Template: tpl}), nil
}

// GetSheetTabs lists every tab of the spreadsheet with a direct link.
func (sc *SheetsController) GetSheetTabs(c *fiber.Ctx) error {
	if !sc.enabled() {
		return c.JSON(fiber.Map{"configured": false, "sheets": []sheets.TabLink{}})
	}

	title, tabs, err := sc.Syncer.Tabs(c.UserContext())
	if err != nil {
		utils.LogError("sheet_tabs_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to load Google Sheets", err)
	}
	return c.JSON(fiber.Map{
		"configured":    true,
		"spreadsheetId": sc.SpreadsheetID,
		"title":         title,
		"sheets":        tabs,
	})
}

// AppendSheetRow writes a free-form row to a team's legacy tab.
func (sc *SheetsController) AppendSheetRow(c *fiber.Ctx) error {
	var input struct {
		TeamName   string                 `json:"teamName" validate:"required"`
		ReportData map[string]interface{} `json:"reportData" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Team name and report data are required", err)
	}
	if !sc.enabled() {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Google Sheets not configured", nil)
	}

	data := make(map[string]string, len(input.ReportData))
	for k, v := range input.ReportData {
		if v == nil {
			continue
		}
		data[k] = fmt.Sprint(v)
	}

	tab, err := sc.Syncer.AppendManual(c.UserContext(), input.TeamName, data)
	if err != nil {
		utils.LogError("sheet_append_failed", err, map[string]interface{}{"team": input.TeamName})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save to Google Sheets", err)
	}
	sc.Logger.WithField("tab", tab).Info("Row appended to sheet")
	return c.JSON(fiber.Map{"success": true, "tab": tab})
}
