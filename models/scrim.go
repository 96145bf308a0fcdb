package models

import "time"

// ScrimStatus представляет статусы скрима, соответствующие ENUM в БД.
type ScrimStatus string

const (
	ScrimStatusOpen    ScrimStatus = "open"
	ScrimStatusFilled  ScrimStatus = "filled"
	ScrimStatusClosed  ScrimStatus = "closed"
	ScrimStatusExpired ScrimStatus = "expired"
)

func (s ScrimStatus) IsValid() bool {
	switch s {
	case ScrimStatusOpen, ScrimStatusFilled, ScrimStatusClosed, ScrimStatusExpired:
		return true
	}
	return false
}

// Terminal сообщает, является ли статус конечным.
func (s ScrimStatus) Terminal() bool {
	return s == ScrimStatusClosed || s == ScrimStatusExpired
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Статус движется только вперёд: open → filled → closed,
// либо open/filled → expired.
func (s ScrimStatus) CanTransitionTo(next ScrimStatus) bool {
	switch s {
	case ScrimStatusOpen:
		return next == ScrimStatusFilled || next == ScrimStatusExpired
	case ScrimStatusFilled:
		return next == ScrimStatusClosed || next == ScrimStatusExpired
	}
	return false
}

const (
	MaxRoundsShort = 13
	MaxRoundsFull  = 24
)

func IsValidMaxRounds(rounds int) bool {
	return rounds == MaxRoundsShort || rounds == MaxRoundsFull
}

type Scrim struct {
	ID              int         `json:"id" db:"id"`
	TeamID          int         `json:"team_id" db:"team_id"`
	Title           string      `json:"title" db:"title"`
	Description     string      `json:"description" db:"description"`
	Maps            []string    `json:"maps" db:"maps"`
	MaxRounds       int         `json:"max_rounds" db:"max_rounds"`
	NumGames        int         `json:"num_games" db:"num_games"`
	ScheduledTime   time.Time   `json:"scheduled_time" db:"scheduled_time"`
	MaxParticipants int         `json:"max_participants" db:"max_participants"`
	Tier            Tier        `json:"tier" db:"tier"`
	Status          ScrimStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`

	// ID принятой заявки после перехода в filled.
	AcceptedApplicationID *int `json:"accepted_application_id,omitempty" db:"accepted_application_id"`

	Team         *Team         `json:"team,omitempty" db:"-"`
	Applications []Application `json:"applications,omitempty" db:"-"`
}
