package repository

import (
	"context"
	"errors"

	"kredit-api/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository defines the interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// ApplicationRepository defines the interface for credit application operations.
// Reads return applications with Owner populated when the owner still exists.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	// List returns matching applications, most recent first.
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	// UpdateStatus applies the update in a single atomic write.
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) error
	CountByStatus(ctx context.Context, filter models.ApplicationFilter) (models.Stats, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}
