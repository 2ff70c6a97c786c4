package repository

import (
	"context"

	"image-library/internal/domain"
)

// AlbumRepository exposes persistence operations for albums. Delete removes
// only the album row; dependent image rows go with it through the foreign
// key, blob storage is never touched here.
type AlbumRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, album *domain.Album) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Album, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Album, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// ImageRepository exposes persistence operations for images.
type ImageRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, image *domain.Image) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Image, error)
	ListByAlbum(ctx context.Context, albumID int64) ([]domain.Image, error)
	Delete(ctx context.Context, id int64) error
}
