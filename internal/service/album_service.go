package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"image-library/internal/cleanup"
	"image-library/internal/domain"
	"image-library/internal/metrics"
	"image-library/internal/repository"
	"image-library/internal/storage"
)

// AlbumService keeps albums, their images and the blob store consistent.
type AlbumService interface {
	CreateAlbum(ctx context.Context, owner *domain.Principal, title string, cover *Upload) (*domain.Album, error)
	GetAlbum(ctx context.Context, caller *domain.Principal, id int64) (*domain.Album, error)
	ListAlbums(ctx context.Context, ownerID int64) ([]domain.Album, error)
	CountAlbums(ctx context.Context, ownerID int64) (int, error)
	ListImages(ctx context.Context, caller *domain.Principal, albumID int64) (*domain.Album, []domain.Image, error)
	// UploadImages stores each file independently, in order. A rejected file
	// does not stop the batch and earlier successes are never rolled back.
	UploadImages(ctx context.Context, caller *domain.Principal, albumID int64, files []Upload) ([]UploadOutcome, error)
	// DeleteAlbum removes every image blob and the cover blob, then the album
	// row. If any blob survives, a *domain.CleanupError is returned and no row
	// is deleted.
	DeleteAlbum(ctx context.Context, caller *domain.Principal, id int64) error
	// DeleteImage removes the image blob, then the image row.
	DeleteImage(ctx context.Context, caller *domain.Principal, id int64) (*domain.Image, error)
	ObjectURL(ctx context.Context, key string) (string, error)
}

type AlbumConfig struct {
	Bucket string
	// BlobTimeout bounds every single blob store call.
	BlobTimeout time.Duration
	URLExpiry   time.Duration
	Policy      Policy
	Logger      *logrus.Logger
}

type albumService struct {
	cfg     AlbumConfig
	albums  repository.AlbumRepository
	images  repository.ImageRepository
	storage storage.Service
	cleanup cleanup.Pool
}

func NewAlbumService(cfg AlbumConfig, albums repository.AlbumRepository, images repository.ImageRepository, store storage.Service, pool cleanup.Pool) AlbumService {
	if cfg.BlobTimeout <= 0 {
		cfg.BlobTimeout = 30 * time.Second
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = time.Hour
	}
	if cfg.Policy == nil {
		cfg.Policy = PermissivePolicy{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &albumService{
		cfg:     cfg,
		albums:  albums,
		images:  images,
		storage: store,
		cleanup: pool,
	}
}

func (s *albumService) CreateAlbum(ctx context.Context, owner *domain.Principal, title string, cover *Upload) (*domain.Album, error) {
	album := &domain.Album{Title: title}
	if owner != nil {
		id := owner.UserID
		album.OwnerID = &id
	}
	if strings.TrimSpace(title) == "" {
		return nil, domain.NewValidationError("title", "this field is required")
	}
	if err := domain.Validate(album); err != nil {
		return nil, err
	}

	if cover != nil {
		if err := cover.validate("album_cover"); err != nil {
			return nil, err
		}
		key := storage.NewObjectKey(storage.ImageDir, cover.Filename)
		if err := s.upload(ctx, key, cover); err != nil {
			return nil, err
		}
		album.CoverKey = key
	}

	if _, err := s.albums.Create(ctx, album); err != nil {
		if album.HasCover() {
			s.discard(ctx, album.CoverKey)
		}
		return nil, err
	}

	s.cfg.Logger.WithField("album_id", album.ID).Infof("album %q created", album.Title)
	return album, nil
}

func (s *albumService) GetAlbum(ctx context.Context, caller *domain.Principal, id int64) (*domain.Album, error) {
	album, err := s.albums.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.cfg.Policy.CanView(caller, album) {
		return nil, denied(caller)
	}
	return album, nil
}

func (s *albumService) ListAlbums(ctx context.Context, ownerID int64) ([]domain.Album, error) {
	return s.albums.ListByOwner(ctx, ownerID)
}

func (s *albumService) CountAlbums(ctx context.Context, ownerID int64) (int, error) {
	return s.albums.CountByOwner(ctx, ownerID)
}

func (s *albumService) ListImages(ctx context.Context, caller *domain.Principal, albumID int64) (*domain.Album, []domain.Image, error) {
	album, err := s.GetAlbum(ctx, caller, albumID)
	if err != nil {
		return nil, nil, err
	}
	images, err := s.images.ListByAlbum(ctx, album.ID)
	if err != nil {
		return nil, nil, err
	}
	return album, images, nil
}

func (s *albumService) UploadImages(ctx context.Context, caller *domain.Principal, albumID int64, files []Upload) ([]UploadOutcome, error) {
	album, err := s.albums.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if !s.cfg.Policy.CanUpload(caller, album) {
		return nil, denied(caller)
	}
	if len(files) == 0 {
		return nil, domain.NewValidationError("image_file", "no files were submitted")
	}

	logger := s.cfg.Logger.WithField("album_id", album.ID)
	outcomes := make([]UploadOutcome, len(files))
	for i := range files {
		outcomes[i] = s.uploadOne(ctx, album.ID, i, &files[i])
		metrics.ImageUploadsTotal.WithLabelValues(metrics.Result(outcomes[i].Err)).Inc()
		if outcomes[i].Err != nil {
			logger.Warnf("upload %q: %v", files[i].Filename, outcomes[i].Err)
		}
	}
	return outcomes, nil
}

func (s *albumService) uploadOne(ctx context.Context, albumID int64, index int, file *Upload) UploadOutcome {
	outcome := UploadOutcome{Index: index, Filename: file.Filename}
	if err := file.validate("image_file"); err != nil {
		outcome.Err = err
		return outcome
	}

	key := storage.NewObjectKey(storage.ImageDir, file.Filename)
	if err := s.upload(ctx, key, file); err != nil {
		outcome.Err = err
		return outcome
	}

	image := &domain.Image{Key: key, AlbumID: albumID}
	if _, err := s.images.Create(ctx, image); err != nil {
		s.discard(ctx, key)
		outcome.Err = err
		return outcome
	}
	outcome.Image = image
	return outcome
}

func (s *albumService) DeleteAlbum(ctx context.Context, caller *domain.Principal, id int64) error {
	album, err := s.albums.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.cfg.Policy.CanDelete(caller, album) {
		return denied(caller)
	}

	// The image rows disappear with the album row, so the keys are read first.
	images, err := s.images.ListByAlbum(ctx, album.ID)
	if err != nil {
		return err
	}

	targets := make([]cleanup.Target, 0, len(images)+1)
	for _, img := range images {
		targets = append(targets, cleanup.Target{ImageID: img.ID, Key: img.Key})
	}
	if album.HasCover() {
		targets = append(targets, cleanup.Target{Key: album.CoverKey, Cover: true})
	}

	logger := s.cfg.Logger.WithField("album_id", album.ID)
	if failures := s.cleanup.DeleteAll(ctx, targets); len(failures) > 0 {
		metrics.AlbumDeletesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		cleanupErr := &domain.CleanupError{AlbumID: album.ID, Failures: failures}
		logger.Errorf("album kept: %v", cleanupErr)
		return cleanupErr
	}

	if err := s.albums.Delete(ctx, album.ID); err != nil {
		metrics.AlbumDeletesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return err
	}
	metrics.AlbumDeletesTotal.WithLabelValues(metrics.ResultOK).Inc()
	logger.Infof("album deleted with %d image(s)", len(images))
	return nil
}

func (s *albumService) DeleteImage(ctx context.Context, caller *domain.Principal, id int64) (*domain.Image, error) {
	image, err := s.images.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	album, err := s.albums.Get(ctx, image.AlbumID)
	if err != nil {
		return nil, err
	}
	if !s.cfg.Policy.CanDelete(caller, album) {
		return nil, denied(caller)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.BlobTimeout)
	defer cancel()
	err = s.storage.DeleteObject(callCtx, s.cfg.Bucket, image.Key)
	metrics.BlobDeletesTotal.WithLabelValues("image", metrics.Result(err)).Inc()
	if err != nil {
		return nil, asBlobStoreError(err)
	}

	if err := s.images.Delete(ctx, image.ID); err != nil {
		return nil, err
	}
	s.cfg.Logger.WithFields(logrus.Fields{"album_id": album.ID, "image_id": image.ID}).Info("image deleted")
	return image, nil
}

func (s *albumService) ObjectURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.BlobTimeout)
	defer cancel()
	return s.storage.GetObjectURL(callCtx, s.cfg.Bucket, key, s.cfg.URLExpiry)
}

func (s *albumService) upload(ctx context.Context, key string, file *Upload) error {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.BlobTimeout)
	defer cancel()
	err := s.storage.Upload(callCtx, file.Body, storage.UploadOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: file.ContentType,
		Size:        file.Size,
	})
	if err != nil {
		return asBlobStoreError(err)
	}
	return nil
}

// discard removes a blob whose row could not be written.
func (s *albumService) discard(ctx context.Context, key string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.BlobTimeout)
	defer cancel()
	if err := s.storage.DeleteObject(callCtx, s.cfg.Bucket, key); err != nil {
		s.cfg.Logger.WithField("key", key).Warnf("discard orphan blob: %v", err)
	}
}

func asBlobStoreError(err error) error {
	if errors.Is(err, domain.ErrBlobStore) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrBlobStore, err)
}

var _ AlbumService = (*albumService)(nil)
