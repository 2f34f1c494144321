// Package users is the credential store: durable user records keyed by email.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists users.
//
// FindByEmail returns common.ErrorNotFound when no user has that email.
// Create assigns the id and returns common.ErrorAlreadyExists when the email
// is taken; the store's unique constraint is the authoritative check.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
