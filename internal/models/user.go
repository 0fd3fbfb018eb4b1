package models

import (
	"time"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // omitted from queries unless explicitly requested
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
