package domain

import "time"

// MaxTitleLength bounds album and image titles, counted in characters.
const MaxTitleLength = 60

// Album is a user-owned collection of images with an optional cover.
type Album struct {
	ID        int64
	Title     string `validate:"required,max=60"`
	CoverKey  string
	OwnerID   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCover reports whether a cover image was stored for the album.
func (a *Album) HasCover() bool {
	return a.CoverKey != ""
}

// OwnedBy reports whether the album belongs to the given user.
func (a *Album) OwnedBy(userID int64) bool {
	return a.OwnerID != nil && *a.OwnerID == userID
}
