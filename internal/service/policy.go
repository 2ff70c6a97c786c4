package service

import "image-library/internal/domain"

// Policy decides who may act on an album. A nil principal is an anonymous caller.
type Policy interface {
	CanView(principal *domain.Principal, album *domain.Album) bool
	CanUpload(principal *domain.Principal, album *domain.Album) bool
	CanDelete(principal *domain.Principal, album *domain.Album) bool
}

// PermissivePolicy keeps the historical behaviour: any album can be viewed,
// filled or deleted by id, and album deletion does not even require a session.
// Authentication for the other routes is enforced by the HTTP layer.
type PermissivePolicy struct{}

func (PermissivePolicy) CanView(*domain.Principal, *domain.Album) bool   { return true }
func (PermissivePolicy) CanUpload(*domain.Principal, *domain.Album) bool { return true }
func (PermissivePolicy) CanDelete(*domain.Principal, *domain.Album) bool { return true }

// OwnerPolicy restricts every album operation to the album owner.
// Ownerless albums are visible to authenticated users but cannot be changed.
type OwnerPolicy struct{}

func (OwnerPolicy) CanView(principal *domain.Principal, album *domain.Album) bool {
	if principal == nil {
		return false
	}
	return album.OwnerID == nil || album.OwnedBy(principal.UserID)
}

func (OwnerPolicy) CanUpload(principal *domain.Principal, album *domain.Album) bool {
	return principal != nil && album.OwnedBy(principal.UserID)
}

func (OwnerPolicy) CanDelete(principal *domain.Principal, album *domain.Album) bool {
	return principal != nil && album.OwnedBy(principal.UserID)
}

func denied(principal *domain.Principal) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	return domain.ErrPermission
}
