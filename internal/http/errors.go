package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"image-library/internal/domain"
)

type blobFailureResponse struct {
	ImageID int64  `json:"image_id,omitempty"`
	Key     string `json:"key"`
	Cover   bool   `json:"cover,omitempty"`
	Error   string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *domain.ValidationError
	var cleanupErr *domain.CleanupError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  domain.ErrValidation.Error(),
			"fields": gin.H{validationErr.Field: []string{validationErr.Message}},
		})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  domain.ErrValidation.Error(),
			"fields": gin.H{"username": []string{"a user with that username already exists"}},
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &cleanupErr):
		failures := make([]blobFailureResponse, len(cleanupErr.Failures))
		for i, f := range cleanupErr.Failures {
			failures[i] = blobFailureResponse{ImageID: f.ImageID, Key: f.Key, Cover: f.Cover, Error: f.Err.Error()}
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    domain.ErrBlobStore.Error(),
			"album_id": cleanupErr.AlbumID,
			"failures": failures,
		})
	case errors.Is(err, domain.ErrBlobStore):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.WithField("path", c.Request.URL.Path).Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
