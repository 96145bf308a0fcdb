package models

import "time"

// UserRole соответствует ENUM в БД.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

type User struct {
	ID               int       `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	ValorantUsername string    `json:"valorant_username" db:"valorant_username"`
	ValorantTag      string    `json:"valorant_tag" db:"valorant_tag"`
	Tier             Tier      `json:"tier" db:"tier"`
	Rank             string    `json:"rank" db:"rank"`
	Role             UserRole  `json:"role" db:"role"`
	TeamID           *int      `json:"team_id,omitempty" db:"team_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
