package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/identity"
	"teamreports/middleware"
	"teamreports/store"
	"teamreports/utils"
)

type AuthConfig struct {
	BotToken       string
	JWTSecret      string
	JWTTTL         time.Duration
	InitDataMaxAge time.Duration
}

type AuthController struct {
	Store    *store.Store
	Resolver *identity.Resolver
	Config   AuthConfig
	Logger   *logrus.Entry
}

func NewAuthController(s *store.Store, resolver *identity.Resolver, cfg AuthConfig, logger *logrus.Entry) *AuthController {
	return &AuthController{
		Store:    s,
		Resolver: resolver,
		Config:   cfg,
		Logger:   logger,
	}
}

// TelegramLogin verifies Mini App init data, resolves the user and issues a
// session token.
func (ac *AuthController) TelegramLogin(c *fiber.Ctx) error {
	var input struct {
		InitData string `json:"initData" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	data, err := identity.VerifyInitData(input.InitData, ac.Config.BotToken, ac.Config.InitDataMaxAge, time.Now())
	if err != nil {
		ac.Logger.WithError(err).WithField("ip", c.IP()).Warn("Rejected Telegram init data")
		if errors.Is(err, identity.ErrInitDataExpired) {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Telegram session expired", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid Telegram init data", nil)
	}

	user, isAdmin, err := ac.Resolver.Resolve(c.UserContext(), data.Identity)
	if err != nil {
		utils.LogError("identity_resolution_failed", err, map[string]interface{}{
			"telegram_id": data.Identity.TelegramID,
		})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve user", err)
	}

	token, err := utils.GenerateSessionToken(ac.Config.JWTSecret, ac.Config.JWTTTL, user.TelegramID, isAdmin)
	if err != nil {
		utils.LogError("session_token_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create session", err)
	}

	utils.LogEvent("telegram_login", map[string]interface{}{
		"telegram_id": user.TelegramID,
		"admin":       isAdmin,
	})
	return c.JSON(fiber.Map{
		"token":   token,
		"user":    user,
		"isAdmin": isAdmin,
	})
}

// GetCurrentUser returns the session's user with a fresh admin decision.
func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
	}

	user, err := ac.Store.GetUser(c.UserContext(), claims.TelegramID)
	if errors.Is(err, store.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", nil)
	}
	if err != nil {
		return storeErrorResponse(c, err, "User not found", "Failed to fetch user")
	}
	return c.JSON(fiber.Map{
		"user":    user,
		"isAdmin": ac.Resolver.IsAdmin(user),
	})
}
