package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"image-library/internal/cleanup"
	"image-library/internal/domain"
	"image-library/internal/storage"
)

type memStore struct {
	mu          sync.Mutex
	nextID      int64
	albums      map[int64]domain.Album
	images      map[int64]domain.Image
	users       map[int64]domain.User
	profiles    map[int64]domain.Profile
	provisionFn func(userID int64) error
}

func newMemStore() *memStore {
	return &memStore{
		albums:   map[int64]domain.Album{},
		images:   map[int64]domain.Image{},
		users:    map[int64]domain.User{},
		profiles: map[int64]domain.Profile{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memAlbums struct{ *memStore }

func (r memAlbums) Init(context.Context) error { return nil }

func (r memAlbums) Create(_ context.Context, album *domain.Album) (int64, error) {
	if err := domain.Validate(album); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	album.ID = r.id()
	r.albums[album.ID] = *album
	return album.ID, nil
}

func (r memAlbums) Get(_ context.Context, id int64) (*domain.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	album, ok := r.albums[id]
	if !ok {
		return nil, fmt.Errorf("album %d: %w", id, domain.ErrNotFound)
	}
	return &album, nil
}

func (r memAlbums) ListByOwner(_ context.Context, ownerID int64) ([]domain.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	albums := []domain.Album{}
	for _, a := range r.albums {
		if a.OwnedBy(ownerID) {
			albums = append(albums, a)
		}
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].ID < albums[j].ID })
	return albums, nil
}

func (r memAlbums) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	albums, err := r.ListByOwner(ctx, ownerID)
	return len(albums), err
}

func (r memAlbums) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[id]; !ok {
		return fmt.Errorf("album %d: %w", id, domain.ErrNotFound)
	}
	delete(r.albums, id)
	for imgID, img := range r.images {
		if img.AlbumID == id {
			delete(r.images, imgID)
		}
	}
	return nil
}

type memImages struct{ *memStore }

func (r memImages) Init(context.Context) error { return nil }

func (r memImages) Create(_ context.Context, image *domain.Image) (int64, error) {
	if err := domain.Validate(image); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[image.AlbumID]; !ok {
		return 0, domain.NewValidationError("album", "album does not exist")
	}
	image.ID = r.id()
	r.images[image.ID] = *image
	return image.ID, nil
}

func (r memImages) Get(_ context.Context, id int64) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("image %d: %w", id, domain.ErrNotFound)
	}
	return &img, nil
}

func (r memImages) ListByAlbum(_ context.Context, albumID int64) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	images := []domain.Image{}
	for _, img := range r.images {
		if img.AlbumID == albumID {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images, nil
}

func (r memImages) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return fmt.Errorf("image %d: %w", id, domain.ErrNotFound)
	}
	delete(r.images, id)
	return nil
}

type memUsers struct{ *memStore }

func (r memUsers) Init(context.Context) error { return nil }

func (r memUsers) Create(_ context.Context, user *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("insert user: %w", domain.ErrUserAlreadyExists)
		}
	}
	user.ID = r.id()
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r memUsers) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username && u.ID != user.ID {
			return fmt.Errorf("update user: %w", domain.ErrUserAlreadyExists)
		}
	}
	stored, ok := r.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Username = user.Username
	stored.Email = user.Email
	r.users[user.ID] = stored
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	delete(r.profiles, id)
	return nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	return &u, nil
}

type memProfiles struct{ *memStore }

func (r memProfiles) Init(context.Context) error { return nil }

func (r memProfiles) Provision(_ context.Context, userID int64, imageKey string) (*domain.Profile, error) {
	if r.provisionFn != nil {
		if err := r.provisionFn(userID); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return &p, nil
	}
	p := domain.Profile{ID: r.id(), UserID: userID, ImageKey: imageKey}
	r.profiles[userID] = p
	return &p, nil
}

func (r memProfiles) GetByUser(_ context.Context, userID int64) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return &p, nil
}

func (r memProfiles) UpdateImage(_ context.Context, userID int64, imageKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.ImageKey = imageKey
	r.profiles[userID] = p
	return nil
}

// fakeBlobs records every call and fails the keys listed in failDelete.
type fakeBlobs struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deletes    []string
	failDelete map[string]bool
	failUpload bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, failDelete: map[string]bool{}}
}

func (f *fakeBlobs) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) error {
	if f.failUpload {
		return fmt.Errorf("upload %s: %w", opts.Key, errors.New("bucket unreachable"))
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[opts.Key] = data
	return nil
}

func (f *fakeBlobs) DeleteObject(_ context.Context, _, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.failDelete[key] {
		return fmt.Errorf("delete object %s: %w: access denied", key, domain.ErrBlobStore)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://blobs.local/" + bucket + "/" + key, nil
}

func (f *fakeBlobs) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type albumFixture struct {
	store  *memStore
	blobs  *fakeBlobs
	albums AlbumService
}

func newAlbumFixture(policy Policy) *albumFixture {
	store := newMemStore()
	blobs := newFakeBlobs()
	logger := quietLogger()
	pool := cleanup.NewPool(cleanup.Config{Bucket: "bucket", MaxConcurrent: 2, Logger: logger}, blobs)
	svc := NewAlbumService(AlbumConfig{Bucket: "bucket", Policy: policy, Logger: logger},
		memAlbums{store}, memImages{store}, blobs, pool)
	return &albumFixture{store: store, blobs: blobs, albums: svc}
}
