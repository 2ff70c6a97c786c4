package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"image-library/internal/domain"
	"image-library/internal/repository"
)

const createAlbumsTable = `
CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	cover_key TEXT NOT NULL DEFAULT '',
	user_id INTEGER NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_albums_user_id ON albums(user_id);
`

type AlbumRepository struct {
	db *sql.DB
}

func NewAlbumRepository(db *sql.DB) repository.AlbumRepository {
	return &AlbumRepository{db: db}
}

func (r *AlbumRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAlbumsTable); err != nil {
		return fmt.Errorf("create albums table: %w", err)
	}
	return nil
}

func (r *AlbumRepository) Create(ctx context.Context, album *domain.Album) (int64, error) {
	if strings.TrimSpace(album.Title) == "" {
		return 0, domain.NewValidationError("title", "this field is required")
	}
	if err := domain.Validate(album); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	album.CreatedAt = now
	album.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO albums (title, cover_key, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		album.Title,
		album.CoverKey,
		nullInt64(album.OwnerID),
		album.CreatedAt,
		album.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert album: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("album last insert id: %w", err)
	}
	album.ID = id
	return id, nil
}

func (r *AlbumRepository) Get(ctx context.Context, id int64) (*domain.Album, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, cover_key, user_id, created_at, updated_at
FROM albums
WHERE id=?`,
		id,
	)
	album, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("album %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return album, nil
}

func (r *AlbumRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Album, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, cover_key, user_id, created_at, updated_at
FROM albums
WHERE user_id=?
ORDER BY id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	albums := []domain.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, *album)
	}

	return albums, rows.Err()
}

func (r *AlbumRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums WHERE user_id=?`, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count albums: %w", err)
	}
	return count, nil
}

func (r *AlbumRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	return requireAffected(res, "album", id)
}

func scanAlbum(row scanner) (*domain.Album, error) {
	var (
		album   domain.Album
		ownerID sql.NullInt64
	)
	if err := row.Scan(
		&album.ID,
		&album.Title,
		&album.CoverKey,
		&ownerID,
		&album.CreatedAt,
		&album.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan album: %w", err)
	}
	if ownerID.Valid {
		id := ownerID.Int64
		album.OwnerID = &id
	}
	return &album, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
