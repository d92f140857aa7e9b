package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/models"
	"teamreports/store"
	"teamreports/utils"
)

type UserController struct {
	Store  *store.Store
	Logger *logrus.Entry
}

func NewUserController(s *store.Store, logger *logrus.Entry) *UserController {
	return &UserController{
		Store:  s,
		Logger: logger,
	}
}

// GetUsers returns one user for ?telegramId=, members for ?teamId=, else everyone.
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	if raw := c.Query("telegramId"); raw != "" {
		telegramID, ok := utils.ParseInt64(raw)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid telegramId", nil)
		}
		user, err := uc.Store.GetUser(c.UserContext(), telegramID)
		if err != nil {
			return storeErrorResponse(c, err, "User not found", "Failed to fetch user")
		}
		return c.JSON(fiber.Map{"user": user})
	}

	var filter store.UserFilter
	if teamID := c.Query("teamId"); teamID != "" {
		filter.TeamID = &teamID
	}
	users, err := uc.Store.ListUsers(c.UserContext(), filter)
	if err != nil {
		return storeErrorResponse(c, err, "Users not found", "Failed to fetch users")
	}
	return c.JSON(fiber.Map{"users": users})
}

func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var input struct {
		TelegramID int64  `json:"telegramId" validate:"required,gt=0"`
		FirstName  string `json:"firstName" validate:"required,max=200"`
		LastName   string `json:"lastName" validate:"max=200"`
		Username   string `json:"username" validate:"max=100"`
		PhotoURL   string `json:"photoUrl" validate:"omitempty,url"`
		Role       string `json:"role" validate:"max=50"`
		TeamID     string `json:"teamId"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	user := &models.User{
		TelegramID: input.TelegramID,
		FirstName:  input.FirstName,
		LastName:   optional(input.LastName),
		Username:   optional(input.Username),
		PhotoURL:   optional(input.PhotoURL),
		Role:       input.Role,
		TeamID:     optional(input.TeamID),
	}
	if err := uc.Store.CreateUser(c.UserContext(), user); err != nil {
		return storeErrorResponse(c, err, "User not found", "Failed to create user")
	}

	uc.Logger.WithField("telegram_id", user.TelegramID).Info("User created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// UpdateUser patches profile fields, role or team. "teamId": null unassigns.
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	var input struct {
		TelegramID int64                   `json:"telegramId"`
		FirstName  *string                 `json:"firstName"`
		LastName   *string                 `json:"lastName"`
		Username   *string                 `json:"username"`
		PhotoURL   *string                 `json:"photoUrl"`
		Role       *string                 `json:"role"`
		TeamID     models.Nullable[string] `json:"teamId"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.TelegramID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Telegram ID is required", nil)
	}
	if input.FirstName != nil && *input.FirstName == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "First name cannot be empty", nil)
	}
	if input.Role != nil && *input.Role == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Role cannot be empty", nil)
	}

	user, err := uc.Store.UpdateUser(c.UserContext(), input.TelegramID, store.UserPatch{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		PhotoURL:  input.PhotoURL,
		Role:      input.Role,
		TeamID:    input.TeamID,
	})
	if err != nil {
		return storeErrorResponse(c, err, "User not found", "Failed to update user")
	}
	return c.JSON(fiber.Map{"user": user})
}
