// Package identity maps Telegram identities to users, provisioning them on
// first contact and deciding who counts as an admin.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"teamreports/metrics"
	"teamreports/models"
	"teamreports/store"
)

// Identity is what a caller presents: a Telegram user id plus profile fields.
// Empty profile fields mean "not presented" and never overwrite stored values.
type Identity struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
}

type UserStore interface {
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, telegramID int64, patch store.UserPatch) (*models.User, error)
}

type Resolver struct {
	users  UserStore
	admins map[int64]struct{}
}

func NewResolver(users UserStore, adminIDs []int64) *Resolver {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Resolver{users: users, admins: admins}
}

func (r *Resolver) IsAllowListed(telegramID int64) bool {
	_, ok := r.admins[telegramID]
	return ok
}

// IsAdmin is true for allow-listed ids and for users whose stored role is admin.
func (r *Resolver) IsAdmin(user *models.User) bool {
	if user == nil {
		return false
	}
	return r.IsAllowListed(user.TelegramID) || user.IsAdminRole()
}

// RoleFor is the role a newly provisioned user receives.
func (r *Resolver) RoleFor(telegramID int64) string {
	if r.IsAllowListed(telegramID) {
		return models.RoleAdmin
	}
	return models.RoleEmployee
}

// Resolve returns the user for id, creating it on first sight and patching
// drifted profile fields. An allow-listed id always ends up with the admin role.
func (r *Resolver) Resolve(ctx context.Context, id Identity) (*models.User, bool, error) {
	if id.TelegramID == 0 {
		return nil, false, errors.New("telegram id is required")
	}

	user, err := r.users.GetUser(ctx, id.TelegramID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user, err = r.provision(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return user, r.IsAdmin(user), nil
	case err != nil:
		return nil, false, fmt.Errorf("resolve identity %d: %w", id.TelegramID, err)
	}

	patch := diff(user, id)
	if r.IsAllowListed(user.TelegramID) && !user.IsAdminRole() {
		role := models.RoleAdmin
		patch.Role = &role
		logrus.WithField("telegram_id", user.TelegramID).Info("Promoting allow-listed user to admin")
	}
	if patch.IsEmpty() {
		metrics.IdentityResolutions.WithLabelValues("unchanged").Inc()
		return user, r.IsAdmin(user), nil
	}

	user, err = r.users.UpdateUser(ctx, id.TelegramID, patch)
	if err != nil {
		return nil, false, fmt.Errorf("update identity %d: %w", id.TelegramID, err)
	}
	metrics.IdentityResolutions.WithLabelValues("updated").Inc()
	return user, r.IsAdmin(user), nil
}

func (r *Resolver) provision(ctx context.Context, id Identity) (*models.User, error) {
	user := &models.User{
		TelegramID: id.TelegramID,
		FirstName:  id.FirstName,
		LastName:   optional(id.LastName),
		Username:   optional(id.Username),
		PhotoURL:   optional(id.PhotoURL),
		Role:       r.RoleFor(id.TelegramID),
	}
	if user.FirstName == "" {
		user.FirstName = "User"
	}

	err := r.users.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicateKey) {
		// Lost a race with a concurrent first contact; the other request's row wins.
		return r.users.GetUser(ctx, id.TelegramID)
	}
	if err != nil {
		return nil, fmt.Errorf("provision identity %d: %w", id.TelegramID, err)
	}

	metrics.IdentityResolutions.WithLabelValues("created").Inc()
	logrus.WithFields(logrus.Fields{
		"telegram_id": user.TelegramID,
		"role":        user.Role,
	}).Info("Provisioned new user")
	return user, nil
}

func diff(user *models.User, id Identity) store.UserPatch {
	var patch store.UserPatch
	if id.FirstName != "" && id.FirstName != user.FirstName {
		patch.FirstName = &id.FirstName
	}
	if id.LastName != "" && id.LastName != deref(user.LastName) {
		patch.LastName = &id.LastName
	}
	if id.Username != "" && id.Username != deref(user.Username) {
		patch.Username = &id.Username
	}
	if id.PhotoURL != "" && id.PhotoURL != deref(user.PhotoURL) {
		patch.PhotoURL = &id.PhotoURL
	}
	return patch
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
