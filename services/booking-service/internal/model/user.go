package model

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Provider     bool
}

type Notification struct {
	ID         int64
	ProviderID string
	Content    string
	Read       bool
	CreatedAt  time.Time
}
