package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/models"
	"teamreports/store"
	"teamreports/templates"
	"teamreports/utils"
)

type TeamController struct {
	Store     *store.Store
	Templates *templates.Registry
	Logger    *logrus.Entry
}

func NewTeamController(s *store.Store, registry *templates.Registry, logger *logrus.Entry) *TeamController {
	return &TeamController{
		Store:     s,
		Templates: registry,
		Logger:    logger,
	}
}

// GetTeams returns one team with its members when ?id= is given, else all teams.
func (tc *TeamController) GetTeams(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		team, err := tc.Store.GetTeamWithMembers(c.UserContext(), id)
		if err != nil {
			return storeErrorResponse(c, err, "Team not found", "Failed to fetch team")
		}
		return c.JSON(fiber.Map{"team": team})
	}

	teams, err := tc.Store.ListTeams(c.UserContext())
	if err != nil {
		return storeErrorResponse(c, err, "Teams not found", "Failed to fetch teams")
	}
	return c.JSON(fiber.Map{"teams": teams})
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	var input struct {
		Name        string `json:"name" validate:"required,max=200"`
		Description string `json:"description" validate:"max=2000"`
		CreatedBy   int64  `json:"createdBy" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	input.Name = strings.TrimSpace(input.Name)
	if id, _, ok := actingUser(c); ok && input.CreatedBy == 0 {
		input.CreatedBy = id
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	team := &models.Team{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   input.CreatedBy,
	}
	if err := tc.Store.CreateTeam(c.UserContext(), team); err != nil {
		return storeErrorResponse(c, err, "Team not found", "Failed to create team")
	}

	tc.Logger.WithFields(logrus.Fields{"team_id": team.ID, "name": team.Name}).Info("Team created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"team": team})
}

// UpdateTeam renames a team or (re)assigns its template. A null templateId
// clears the assignment.
func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	var input struct {
		TeamID      string                  `json:"teamId"`
		Name        *string                 `json:"name"`
		Description *string                 `json:"description"`
		TemplateID  models.Nullable[string] `json:"templateId"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.TeamID == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Team ID is required", nil)
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Team name cannot be empty", nil)
	}

	templateID, err := resolveTemplateRef(c.UserContext(), tc.Templates, input.TemplateID)
	if err != nil {
		return templateRefError(c, err)
	}

	team, err := tc.Store.UpdateTeam(c.UserContext(), input.TeamID, store.TeamPatch{
		Name:        input.Name,
		Description: input.Description,
		TemplateID:  templateID,
	})
	if err != nil {
		return storeErrorResponse(c, err, "Team not found", "Failed to update team")
	}
	return c.JSON(fiber.Map{"team": team})
}

// DeleteTeam removes a team and unassigns its members.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Team ID is required", nil)
	}

	if err := tc.Store.DeleteTeam(c.UserContext(), id); err != nil {
		return storeErrorResponse(c, err, "Team not found", "Failed to delete team")
	}

	utils.LogEvent("team_deleted", map[string]interface{}{"team_id": id})
	return c.JSON(fiber.Map{"success": true})
}

func (tc *TeamController) GetTeamStats(c *fiber.Ctx) error {
	stats, err := tc.Store.TeamStats(c.UserContext())
	if err != nil {
		return storeErrorResponse(c, err, "Teams not found", "Failed to fetch team stats")
	}
	return c.JSON(fiber.Map{"stats": stats})
}

var errUnknownTemplate = errors.New("template not found")

// resolveTemplateRef maps a template id or key onto its catalog id and makes
// sure the catalog is in the store so the team's reference resolves.
func resolveTemplateRef(ctx context.Context, registry *templates.Registry, ref models.Nullable[string]) (models.Nullable[string], error) {
	if !ref.Set || ref.Value == nil || *ref.Value == "" {
		if ref.Set {
			return models.Null[string](), nil
		}
		return ref, nil
	}

	tpl, err := registry.Get(*ref.Value)
	if err != nil {
		return ref, errUnknownTemplate
	}
	if err := registry.EnsureSynced(ctx); err != nil {
		return ref, err
	}
	return models.Some(tpl.ID), nil
}

func templateRefError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errUnknownTemplate) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Template not found", nil)
	}
	utils.LogError("template_sync_failed", err, nil)
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare templates", err)
}
