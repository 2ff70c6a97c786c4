package repository

import (
	"context"

	"image-library/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// ProfileRepository manages the one-to-one profile attached to each user.
type ProfileRepository interface {
	Init(ctx context.Context) error
	// Provision creates the profile for userID unless one already exists and
	// returns the stored profile either way.
	Provision(ctx context.Context, userID int64, imageKey string) (*domain.Profile, error)
	GetByUser(ctx context.Context, userID int64) (*domain.Profile, error)
	UpdateImage(ctx context.Context, userID int64, imageKey string) error
}
