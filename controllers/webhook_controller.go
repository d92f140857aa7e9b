package controller

import (
	"encoding/json"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/gofiber/fiber/v2"

	"teamreports/bot"
	"teamreports/utils"
)

type WebhookController struct {
	Bot *bot.Handler
}

func NewWebhookController(handler *bot.Handler) *WebhookController {
	return &WebhookController{Bot: handler}
}

// HandleTelegramWebhook answers {ok: true} for every readable update, even when
// the command fails, so Telegram does not redeliver it.
func (wc *WebhookController) HandleTelegramWebhook(c *fiber.Ctx) error {
	var update tgmodels.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		utils.LogError("webhook_decode_failed", err, map[string]interface{}{"ip": c.IP()})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process webhook", err)
	}

	if err := wc.Bot.HandleUpdate(c.UserContext(), &update); err != nil {
		utils.LogError("bot_command_failed", err, map[string]interface{}{"update_id": update.ID})
	}
	return c.JSON(fiber.Map{"ok": true})
}
