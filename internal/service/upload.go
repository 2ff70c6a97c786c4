package service

import (
	"io"

	"image-library/internal/domain"
)

// Upload is one file submitted by a client.
type Upload struct {
	Filename    string
	ContentType string
	// Size is the payload length in bytes, or -1 when unknown.
	Size int64
	Body io.Reader
}

func (u *Upload) validate(field string) error {
	if u == nil || u.Body == nil {
		return domain.NewValidationError(field, "no file was submitted")
	}
	if u.Size == 0 {
		return domain.NewValidationError(field, "the submitted file is empty")
	}
	return nil
}

// UploadOutcome reports what happened to one file of an UploadImages batch.
type UploadOutcome struct {
	Index    int
	Filename string
	Image    *domain.Image
	Err      error
}

func (o UploadOutcome) Succeeded() bool {
	return o.Err == nil && o.Image != nil
}
