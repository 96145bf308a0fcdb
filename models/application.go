package models

import "time"

// ApplicationStatus соответствует ENUM в БД.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application - заявка команды на участие в чужом скриме.
// После создания неизменяема; статус меняется только при resolve скрима.
type Application struct {
	ID              int               `json:"id" db:"id"`
	ScrimID         int               `json:"scrim_id" db:"scrim_id"`
	TeamID          int               `json:"team_id" db:"team_id"`
	SelectedMaps    []string          `json:"selected_maps" db:"selected_maps"`
	PreferredRounds int               `json:"preferred_rounds" db:"preferred_rounds"`
	PreferredGames  int               `json:"preferred_games" db:"preferred_games"`
	Message         string            `json:"message" db:"message"`
	Status          ApplicationStatus `json:"status" db:"status"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
