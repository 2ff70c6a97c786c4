package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an album, image, user or profile that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBlobStore marks a failure talking to the object store, timeouts included.
	ErrBlobStore = errors.New("blob store error")
	// ErrPermission marks a caller that is not allowed to perform the operation.
	ErrPermission = errors.New("permission denied")
	// ErrUnauthenticated marks a request that carries no valid session.
	ErrUnauthenticated = fmt.Errorf("%w: authentication required", ErrPermission)
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BlobFailure records one object that could not be removed from the blob store.
type BlobFailure struct {
	ImageID int64
	Key     string
	Cover   bool
	Err     error
}

// CleanupError aggregates blob deletions that failed during a cascading delete.
// While it is returned, the album and all of its image rows are still present.
type CleanupError struct {
	AlbumID  int64
	Failures []BlobFailure
}

func (e *CleanupError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Cover {
			parts = append(parts, fmt.Sprintf("cover %s: %v", f.Key, f.Err))
			continue
		}
		parts = append(parts, fmt.Sprintf("image %d (%s): %v", f.ImageID, f.Key, f.Err))
	}
	return fmt.Sprintf("album %d cleanup failed for %d object(s): %s", e.AlbumID, len(e.Failures), strings.Join(parts, "; "))
}

func (e *CleanupError) Is(target error) bool {
	return target == ErrBlobStore
}

// FailedImageIDs lists the images whose blobs could not be deleted.
func (e *CleanupError) FailedImageIDs() []int64 {
	ids := make([]int64, 0, len(e.Failures))
	for _, f := range e.Failures {
		if !f.Cover {
			ids = append(ids, f.ImageID)
		}
	}
	return ids
}

// CoverFailed reports whether the album cover could not be deleted.
func (e *CleanupError) CoverFailed() bool {
	for _, f := range e.Failures {
		if f.Cover {
			return true
		}
	}
	return false
}
