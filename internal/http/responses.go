package http

import (
	"context"
	"time"

	"image-library/internal/domain"
	"image-library/internal/service"
)

type AlbumResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CoverKey  string `json:"cover_key,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
	OwnerID   *int64 `json:"owner_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ImageResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	AlbumID   int64  `json:"album_id"`
	Key       string `json:"key"`
	URL       string `json:"url,omitempty"`
	CreatedAt string `json:"created_at"`
}

type UploadOutcomeResponse struct {
	Index    int            `json:"index"`
	Filename string         `json:"filename"`
	Image    *ImageResponse `json:"image,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ProfileResponse struct {
	User     UserResponse `json:"user"`
	ImageKey string       `json:"image_key"`
	ImageURL string       `json:"image_url,omitempty"`
}

// objectURL presigns key, leaving the URL empty when the store cannot.
func (h *Handler) objectURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	u, err := h.albums.ObjectURL(ctx, key)
	if err != nil {
		h.logger.WithField("key", key).Warnf("presign object: %v", err)
		return ""
	}
	return u
}

func (h *Handler) albumToResponse(ctx context.Context, album domain.Album) AlbumResponse {
	return AlbumResponse{
		ID:        album.ID,
		Title:     album.Title,
		CoverKey:  album.CoverKey,
		CoverURL:  h.objectURL(ctx, album.CoverKey),
		OwnerID:   album.OwnerID,
		CreatedAt: album.CreatedAt.Format(time.RFC3339),
		UpdatedAt: album.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) imageToResponse(ctx context.Context, img domain.Image) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		Title:     img.Title,
		AlbumID:   img.AlbumID,
		Key:       img.Key,
		URL:       h.objectURL(ctx, img.Key),
		CreatedAt: img.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) imagesToResponse(ctx context.Context, images []domain.Image) []ImageResponse {
	resp := make([]ImageResponse, len(images))
	for i := range images {
		resp[i] = h.imageToResponse(ctx, images[i])
	}
	return resp
}

func (h *Handler) outcomeToResponse(ctx context.Context, o service.UploadOutcome) UploadOutcomeResponse {
	resp := UploadOutcomeResponse{Index: o.Index, Filename: o.Filename}
	if o.Image != nil {
		img := h.imageToResponse(ctx, *o.Image)
		resp.Image = &img
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}
