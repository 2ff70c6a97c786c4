package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"image-library/internal/domain"
	"image-library/internal/repository"
)

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE,
	image_key TEXT NOT NULL DEFAULT 'default.jpg',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProfilesTable); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Provision(ctx context.Context, userID int64, imageKey string) (*domain.Profile, error) {
	if imageKey == "" {
		imageKey = domain.DefaultProfileImage
	}
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, image_key, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO NOTHING`,
		userID,
		imageKey,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return r.GetByUser(ctx, userID)
}

func (r *ProfileRepository) GetByUser(ctx context.Context, userID int64) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, image_key, created_at, updated_at
FROM profiles
WHERE user_id = ?`,
		userID,
	)

	var profile domain.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.ImageKey,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile for user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &profile, nil
}

func (r *ProfileRepository) UpdateImage(ctx context.Context, userID int64, imageKey string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE profiles
SET image_key=?, updated_at=?
WHERE user_id=?`,
		imageKey,
		time.Now().UTC(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update profile image: %w", err)
	}
	return requireAffected(res, "profile", userID)
}
