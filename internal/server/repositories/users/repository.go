// Package users declares the persistence contract for accounts and its SQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository stores and loads users. Lookups of absent rows return
// common.ErrorNotFound; Create returns common.ErrorAlreadyExists when the
// email is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)

	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	MarkVerified(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}
