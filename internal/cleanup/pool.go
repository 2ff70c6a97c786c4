package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"image-library/internal/domain"
	"image-library/internal/metrics"
	"image-library/internal/storage"
)

// Target is one blob-store object scheduled for removal.
type Target struct {
	ImageID int64
	Key     string
	Cover   bool
}

func (t Target) kind() string {
	if t.Cover {
		return "cover"
	}
	return "image"
}

// Pool removes batches of blob-store objects with bounded concurrency.
type Pool interface {
	// DeleteAll attempts every target even when some fail and returns the
	// failures in target order. An empty result means every object is gone.
	DeleteAll(ctx context.Context, targets []Target) []domain.BlobFailure
}

type Config struct {
	Bucket        string
	MaxConcurrent int
	// Timeout bounds each individual delete call. A timeout counts as a blob store failure.
	Timeout time.Duration
	Logger  *logrus.Logger
}

type pool struct {
	cfg     Config
	storage storage.Service
}

func NewPool(cfg Config, store storage.Service) Pool {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &pool{cfg: cfg, storage: store}
}

func (p *pool) DeleteAll(ctx context.Context, targets []Target) []domain.BlobFailure {
	if len(targets) == 0 {
		return nil
	}

	var (
		sem  = make(chan struct{}, p.cfg.MaxConcurrent)
		wg   sync.WaitGroup
		errs = make([]error, len(targets))
	)

	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[i] = fmt.Errorf("delete object %s: %w: %w", targets[i].Key, domain.ErrBlobStore, ctx.Err())
			case sem <- struct{}{}:
				defer func() { <-sem }()
				errs[i] = p.deleteOne(ctx, targets[i])
			}
		}(i)
	}
	wg.Wait()

	var failures []domain.BlobFailure
	for i, err := range errs {
		metrics.BlobDeletesTotal.WithLabelValues(targets[i].kind(), metrics.Result(err)).Inc()
		if err == nil {
			continue
		}
		failures = append(failures, domain.BlobFailure{
			ImageID: targets[i].ImageID,
			Key:     targets[i].Key,
			Cover:   targets[i].Cover,
			Err:     err,
		})
	}
	return failures
}

func (p *pool) deleteOne(ctx context.Context, target Target) error {
	logger := p.cfg.Logger.WithFields(logrus.Fields{"key": target.Key, "kind": target.kind()})
	if target.ImageID != 0 {
		logger = logger.WithField("image_id", target.ImageID)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := p.storage.DeleteObject(callCtx, p.cfg.Bucket, target.Key); err != nil {
		if !errors.Is(err, domain.ErrBlobStore) {
			err = fmt.Errorf("delete object %s: %w: %w", target.Key, domain.ErrBlobStore, err)
		}
		logger.Warnf("delete blob: %v", err)
		return err
	}
	logger.Debug("blob deleted")
	return nil
}

var _ Pool = (*pool)(nil)
