package domain

import "time"

// Image is a single uploaded picture belonging to exactly one album.
type Image struct {
	ID        int64
	Title     string `validate:"max=60"`
	Key       string `validate:"required"`
	AlbumID   int64  `validate:"required"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
