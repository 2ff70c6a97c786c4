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

const createImagesTable = `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL DEFAULT '',
	image_key TEXT NOT NULL,
	album_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(album_id) REFERENCES albums(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_images_album_id ON images(album_id);
`

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) repository.ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createImagesTable); err != nil {
		return fmt.Errorf("create images table: %w", err)
	}
	return nil
}

func (r *ImageRepository) Create(ctx context.Context, image *domain.Image) (int64, error) {
	if err := domain.Validate(image); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums WHERE id=?`, image.AlbumID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check album: %w", err)
	}
	if exists == 0 {
		return 0, domain.NewValidationError("album", fmt.Sprintf("album %d does not exist", image.AlbumID))
	}

	now := time.Now().UTC()
	image.CreatedAt = now
	image.UpdatedAt = now

	res, err := tx.ExecContext(ctx, `
INSERT INTO images (title, image_key, album_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		image.Title,
		image.Key,
		image.AlbumID,
		image.CreatedAt,
		image.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("image last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit image insert: %w", err)
	}
	image.ID = id
	return id, nil
}

func (r *ImageRepository) Get(ctx context.Context, id int64) (*domain.Image, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, image_key, album_id, created_at, updated_at
FROM images
WHERE id=?`,
		id,
	)

	var image domain.Image
	if err := row.Scan(&image.ID, &image.Title, &image.Key, &image.AlbumID, &image.CreatedAt, &image.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("image %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}
	return &image, nil
}

func (r *ImageRepository) ListByAlbum(ctx context.Context, albumID int64) ([]domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, image_key, album_id, created_at, updated_at
FROM images
WHERE album_id=?
ORDER BY id ASC`, albumID)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		var image domain.Image
		if err := rows.Scan(&image.ID, &image.Title, &image.Key, &image.AlbumID, &image.CreatedAt, &image.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, image)
	}

	return images, rows.Err()
}

func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return requireAffected(res, "image", id)
}
