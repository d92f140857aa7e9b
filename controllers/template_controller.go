package controller

import (
	"github.com/gofiber/fiber/v2"

	"teamreports/models"
	"teamreports/store"
	"teamreports/templates"
	"teamreports/utils"
)

type TemplateController struct {
	Store     *store.Store
	Templates *templates.Registry
}

func NewTemplateController(s *store.Store, registry *templates.Registry) *TemplateController {
	return &TemplateController{
		Store:     s,
		Templates: registry,
	}
}

// GetTemplates serves the catalog; ?id= accepts a template id or key.
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		tpl, err := tc.Templates.Get(id)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
		}
		return c.JSON(fiber.Map{"template": tpl})
	}
	return c.JSON(fiber.Map{"templates": tc.Templates.List()})
}

// AssignTemplate binds a catalog template to a team.
func (tc *TemplateController) AssignTemplate(c *fiber.Ctx) error {
	var input struct {
		TeamID     string                  `json:"teamId"`
		TemplateID models.Nullable[string] `json:"templateId"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.TeamID == "" || !input.TemplateID.Set {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Team ID and template ID are required", nil)
	}

	templateID, err := resolveTemplateRef(c.UserContext(), tc.Templates, input.TemplateID)
	if err != nil {
		return templateRefError(c, err)
	}

	team, err := tc.Store.UpdateTeam(c.UserContext(), input.TeamID, store.TeamPatch{TemplateID: templateID})
	if err != nil {
		return storeErrorResponse(c, err, "Team not found", "Failed to assign template")
	}

	utils.LogEvent("template_assigned", map[string]interface{}{
		"team_id":     team.ID,
		"template_id": team.TemplateID,
	})
	return c.JSON(fiber.Map{"team": team})
}
