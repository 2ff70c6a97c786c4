package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"image-library/internal/domain"
	"image-library/internal/metrics"
	"image-library/internal/repository"
	"image-library/internal/storage"
)

// ErrInvalidRegistrationPassword indicates the registration secret is incorrect.
var ErrInvalidRegistrationPassword = fmt.Errorf("%w: invalid registration password", domain.ErrPermission)

// UserService describes user lifecycle operations. Every registered user owns
// exactly one profile from the moment Register returns.
type UserService interface {
	Register(ctx context.Context, username, email, password, providedSecret string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetProfile(ctx context.Context, userID int64) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*domain.User, *domain.Profile, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// ProfileUpdate carries the editable user and profile fields. Empty strings
// and a nil Image leave the current value untouched.
type ProfileUpdate struct {
	Username string
	Email    string
	Image    *Upload
}

type UserConfig struct {
	RegisterSecret string
	Bucket         string
	BlobTimeout    time.Duration
	Logger         *logrus.Logger
}

type credentials struct {
	Username string `validate:"required,max=150"`
	Email    string `validate:"omitempty,email"`
	Password string `validate:"min=8"`
}

type userService struct {
	cfg      UserConfig
	users    repository.UserRepository
	profiles repository.ProfileRepository
	storage  storage.Service
}

func NewUserService(cfg UserConfig, users repository.UserRepository, profiles repository.ProfileRepository, store storage.Service) UserService {
	cfg.RegisterSecret = strings.TrimSpace(cfg.RegisterSecret)
	if cfg.BlobTimeout <= 0 {
		cfg.BlobTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &userService{
		cfg:      cfg,
		users:    users,
		profiles: profiles,
		storage:  store,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password, providedSecret string) (*domain.User, error) {
	creds := credentials{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := domain.Validate(&creds); err != nil {
		return nil, err
	}
	if s.cfg.RegisterSecret != "" &&
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(providedSecret)), []byte(s.cfg.RegisterSecret)) != 1 {
		return nil, ErrInvalidRegistrationPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     creds.Username,
		Email:        creds.Email,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}

	if _, err := s.profiles.Provision(ctx, user.ID, domain.DefaultProfileImage); err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.cfg.Logger.WithField("user_id", user.ID).Errorf("remove user without profile: %v", delErr)
		}
		return nil, fmt.Errorf("provision profile: %w", err)
	}

	s.cfg.Logger.WithField("user_id", user.ID).Infof("user %s registered", user.Username)
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// GetProfile never reports a missing profile for an existing user: it is
// provisioned on the spot when absent.
func (s *userService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUser(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.profiles.Provision(ctx, userID, domain.DefaultProfileImage)
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*domain.User, *domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if v := strings.TrimSpace(update.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(update.Email); v != "" {
		user.Email = v
	}
	creds := credentials{Username: user.Username, Email: user.Email, Password: "unchanged"}
	if err := domain.Validate(&creds); err != nil {
		return nil, nil, err
	}

	var newKey string
	if update.Image != nil {
		if err := update.Image.validate("image"); err != nil {
			return nil, nil, err
		}
		newKey = storage.NewObjectKey(storage.ProfileDir, update.Image.Filename)
		if err := s.upload(ctx, newKey, update.Image); err != nil {
			return nil, nil, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		if newKey != "" {
			s.deleteBlob(ctx, newKey)
		}
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, nil, domain.NewValidationError("username", "a user with that username already exists")
		}
		return nil, nil, err
	}

	if newKey != "" {
		oldKey := profile.ImageKey
		hadDefault := profile.HasDefaultImage()
		if err := s.profiles.UpdateImage(ctx, userID, newKey); err != nil {
			s.deleteBlob(ctx, newKey)
			return nil, nil, err
		}
		profile.ImageKey = newKey
		if !hadDefault {
			s.deleteBlob(ctx, oldKey)
		}
	}

	return sanitizeUser(user), profile, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return domain.NewValidationError("old_password", "your old password was entered incorrectly")
	}
	if len(newPassword) < 8 {
		return domain.NewValidationError("new_password1", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *userService) upload(ctx context.Context, key string, file *Upload) error {
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

func (s *userService) deleteBlob(ctx context.Context, key string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.BlobTimeout)
	defer cancel()
	err := s.storage.DeleteObject(callCtx, s.cfg.Bucket, key)
	metrics.BlobDeletesTotal.WithLabelValues("profile", metrics.Result(err)).Inc()
	if err != nil {
		s.cfg.Logger.WithField("key", key).Warnf("delete profile image: %v", err)
	}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
