package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"image-library/internal/domain"
	"image-library/internal/service"
)

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// openUpload turns a multipart file header into a service upload. The caller
// closes the returned file.
func openUpload(fh *multipart.FileHeader) (service.Upload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, err
	}
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// optionalFile opens the named form file, or returns nil when it was not sent.
func optionalFile(c *gin.Context, field string) (*service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, domain.NewValidationError(field, err.Error())
	}
	upload, f, err := openUpload(fh)
	if err != nil {
		return nil, func() {}, err
	}
	return &upload, func() { _ = f.Close() }, nil
}

func (h *Handler) dashboard(c *gin.Context) {
	p := principal(c)
	user, err := h.users.GetByID(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	count, err := h.albums.CountAlbums(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user), "album_count": count})
}

func (h *Handler) createAlbumForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields": []gin.H{
			{"name": "title", "type": "text", "required": true, "max_length": domain.MaxTitleLength},
			{"name": "album_cover", "type": "file", "required": false},
		},
	})
}

func (h *Handler) createAlbum(c *gin.Context) {
	cover, closeCover, err := optionalFile(c, "album_cover")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer closeCover()

	album, err := h.albums.CreateAlbum(c.Request.Context(), principal(c), c.PostForm("title"), cover)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"album": h.albumToResponse(c.Request.Context(), *album)})
}

func (h *Handler) viewAlbums(c *gin.Context) {
	p := principal(c)
	albums, err := h.albums.ListAlbums(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := make([]AlbumResponse, len(albums))
	for i := range albums {
		resp[i] = h.albumToResponse(c.Request.Context(), albums[i])
	}
	c.JSON(http.StatusOK, gin.H{"user": p.Username, "albums": resp})
}

func (h *Handler) viewAlbumImages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	album, images, err := h.albums.ListImages(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"album":  h.albumToResponse(c.Request.Context(), *album),
		"images": h.imagesToResponse(c.Request.Context(), images),
	})
}

func (h *Handler) deleteAlbum(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.albums.DeleteAlbum(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) deleteImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	caller := principal(c)
	image, err := h.albums.DeleteImage(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	album, images, err := h.albums.ListImages(c.Request.Context(), caller, image.AlbumID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted": image.ID,
		"album":   h.albumToResponse(c.Request.Context(), *album),
		"images":  h.imagesToResponse(c.Request.Context(), images),
	})
}

func (h *Handler) uploadForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	album, err := h.albums.GetAlbum(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"album":  h.albumToResponse(c.Request.Context(), *album),
		"fields": []gin.H{{"name": "image_file", "type": "file", "multiple": true}},
	})
}

func (h *Handler) uploadImages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		headers = form.File["image_file"]
	}

	files := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, f, err := openUpload(fh)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		defer f.Close()
		files = append(files, upload)
	}

	ctx := c.Request.Context()
	caller := principal(c)
	outcomes, err := h.albums.UploadImages(ctx, caller, id, files)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	album, images, err := h.albums.ListImages(ctx, caller, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	created := 0
	resp := make([]UploadOutcomeResponse, len(outcomes))
	for i := range outcomes {
		if outcomes[i].Succeeded() {
			created++
		}
		resp[i] = h.outcomeToResponse(ctx, outcomes[i])
	}

	status := http.StatusCreated
	if created == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"album":    h.albumToResponse(ctx, *album),
		"images":   h.imagesToResponse(ctx, images),
		"outcomes": resp,
		"created":  created,
		"failed":   len(outcomes) - created,
	})
}
