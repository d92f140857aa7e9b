package store

import (
	"context"
	"errors"
	"fmt"

	"teamreports/models"
)

type UserFilter struct {
	TeamID *string
}

// UserPatch lists the mutable user fields. TelegramID is deliberately absent.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Username  *string
	PhotoURL  *string
	Role      *string
	TeamID    models.Nullable[string]
}

func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Username == nil &&
		p.PhotoURL == nil && p.Role == nil && !p.TeamID.Set
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleEmployee
	}

	_, err := s.GetUser(ctx, user.TelegramID)
	switch {
	case err == nil:
		return fmt.Errorf("user %d: %w", user.TelegramID, ErrDuplicateKey)
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if user.TeamID != nil {
		if err := s.requireTeam(ctx, *user.TeamID); err != nil {
			return err
		}
	}
	return translate(s.conn(ctx).Create(user).Error, "create user")
}

func (s *Store) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := s.conn(ctx).Order("created_at ASC")
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}

	users := []models.User{}
	if err := query.Find(&users).Error; err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

// UpdateUser merges the patch into the stored user and returns the result.
func (s *Store) UpdateUser(ctx context.Context, telegramID int64, patch UserPatch) (*models.User, error) {
	user, err := s.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return user, nil
	}

	updates := map[string]interface{}{}
	if patch.FirstName != nil {
		updates["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}
	if patch.Username != nil {
		updates["username"] = *patch.Username
	}
	if patch.PhotoURL != nil {
		updates["photo_url"] = *patch.PhotoURL
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}
	if patch.TeamID.Set {
		if patch.TeamID.Value != nil {
			if err := s.requireTeam(ctx, *patch.TeamID.Value); err != nil {
				return nil, err
			}
			updates["team_id"] = *patch.TeamID.Value
		} else {
			updates["team_id"] = nil
		}
	}

	if err := s.conn(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, translate(err, "update user")
	}
	return s.GetUser(ctx, telegramID)
}
