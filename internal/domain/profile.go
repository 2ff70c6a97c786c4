package domain

import "time"

// DefaultProfileImage is the reference every new profile starts with.
const DefaultProfileImage = "default.jpg"

// Profile holds per-user auxiliary data. Every user has exactly one.
type Profile struct {
	ID        int64
	UserID    int64
	ImageKey  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDefaultImage reports whether the profile still points at the shared default image.
func (p *Profile) HasDefaultImage() bool {
	return p.ImageKey == "" || p.ImageKey == DefaultProfileImage
}
