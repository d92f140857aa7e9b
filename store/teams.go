package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"teamreports/models"
)

// TeamPatch lists the mutable team fields.
type TeamPatch struct {
	Name        *string
	Description *string
	TemplateID  models.Nullable[string]
}

func (s *Store) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if team.TemplateID != nil {
		if err := s.requireTemplate(ctx, *team.TemplateID); err != nil {
			return err
		}
	}
	return translate(s.conn(ctx).Create(team).Error, "create team")
}

func (s *Store) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := s.conn(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get team")
	}
	return &team, nil
}

// FindTeamByName returns the oldest team with exactly this name.
func (s *Store) FindTeamByName(ctx context.Context, name string) (*models.Team, error) {
	var team models.Team
	if err := s.conn(ctx).Where("name = ?", name).Order("created_at ASC").First(&team).Error; err != nil {
		return nil, translate(err, "find team")
	}
	return &team, nil
}

// GetTeamWithMembers loads a team together with the users assigned to it.
func (s *Store) GetTeamWithMembers(ctx context.Context, id string) (*models.TeamWithMembers, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.ListUsers(ctx, UserFilter{TeamID: &team.ID})
	if err != nil {
		return nil, err
	}
	return &models.TeamWithMembers{Team: *team, Members: members}, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams := []models.Team{}
	if err := s.conn(ctx).Order("created_at ASC").Find(&teams).Error; err != nil {
		return nil, translate(err, "list teams")
	}
	return teams, nil
}

func (s *Store) UpdateTeam(ctx context.Context, id string, patch TeamPatch) (*models.Team, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.TemplateID.Set {
		if patch.TemplateID.Value != nil {
			if err := s.requireTemplate(ctx, *patch.TemplateID.Value); err != nil {
				return nil, err
			}
			updates["template_id"] = *patch.TemplateID.Value
		} else {
			updates["template_id"] = nil
		}
	}
	if len(updates) == 0 {
		return team, nil
	}

	if err := s.conn(ctx).Model(team).Updates(updates).Error; err != nil {
		return nil, translate(err, "update team")
	}
	return s.GetTeam(ctx, id)
}

// DeleteTeam unassigns every member and removes the team in one transaction.
// Either both writes land or neither does.
func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("team_id = ?", id).
			Update("team_id", nil).Error; err != nil {
			return translate(err, "unassign team members")
		}

		result := tx.Where("id = ?", id).Delete(&models.Team{})
		if result.Error != nil {
			return translate(result.Error, "delete team")
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("delete team %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// TeamStats returns member and report counts for every team.
func (s *Store) TeamStats(ctx context.Context) ([]models.TeamStats, error) {
	stats := []models.TeamStats{}
	err := s.conn(ctx).
		Model(&models.Team{}).
		Select(`teams.id AS team_id, teams.name AS name,
			(SELECT COUNT(*) FROM users WHERE users.team_id = teams.id) AS member_count,
			(SELECT COUNT(*) FROM reports WHERE reports.team_id = teams.id) AS report_count`).
		Order("teams.created_at ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, translate(err, "team stats")
	}
	return stats, nil
}

func (s *Store) requireTeam(ctx context.Context, id string) error {
	if _, err := s.GetTeam(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return constraintf("team %s does not exist", id)
		}
		return err
	}
	return nil
}
