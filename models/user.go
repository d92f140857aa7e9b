package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is a Telegram identity known to the system. TelegramID is the natural key.
type User struct {
	TelegramID int64     `gorm:"primaryKey;autoIncrement:false" json:"telegramId"`
	FirstName  string    `gorm:"not null" json:"firstName"`
	LastName   *string   `json:"lastName,omitempty"`
	Username   *string   `gorm:"index" json:"username,omitempty"`
	PhotoURL   *string   `json:"photoUrl,omitempty"`
	TeamID     *string   `gorm:"index" json:"teamId"`
	Role       string    `gorm:"not null;default:'employee'" json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) IsAdminRole() bool {
	return u.Role == RoleAdmin
}

// DisplayName joins first and last name, falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != nil && *u.LastName != "" {
		name += " " + *u.LastName
	}
	if name == "" && u.Username != nil {
		name = "@" + *u.Username
	}
	return name
}
