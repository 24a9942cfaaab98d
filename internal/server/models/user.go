package models

import "time"

// User is a registered account.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	FullName       *string
	IsVerified     bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
