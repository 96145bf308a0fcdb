package models

import "time"

type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	Tier        Tier      `json:"tier" db:"tier"`
	MaxMembers  int       `json:"max_members" db:"max_members"`
	AverageRank string    `json:"average_rank" db:"average_rank"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Members []User  `json:"members,omitempty" db:"-"`
	Scrims  []Scrim `json:"scrims,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}
