package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"image-library/internal/auth"
	"image-library/internal/cleanup"
	"image-library/internal/config"
	apphttp "image-library/internal/http"
	"image-library/internal/repository/sqlite"
	"image-library/internal/service"
	"image-library/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	profileRepo := sqlite.NewProfileRepository(db)
	albumRepo := sqlite.NewAlbumRepository(db)
	imageRepo := sqlite.NewImageRepository(db)

	if err := sqlite.InitAll(ctx, userRepo, profileRepo, albumRepo, imageRepo); err != nil {
		logger.Fatalf("init repositories: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	pool := cleanup.NewPool(cleanup.Config{
		Bucket:        cfg.Storage.Bucket,
		MaxConcurrent: cfg.Cleanup.MaxConcurrent,
		Timeout:       cfg.Storage.Timeout,
		Logger:        logger,
	}, storageSvc)

	var policy service.Policy = service.PermissivePolicy{}
	if cfg.Auth.EnforceOwnership {
		policy = service.OwnerPolicy{}
		logger.Info("album ownership enforced")
	}

	albumService := service.NewAlbumService(service.AlbumConfig{
		Bucket:      cfg.Storage.Bucket,
		BlobTimeout: cfg.Storage.Timeout,
		URLExpiry:   cfg.Storage.URLExpiry,
		Policy:      policy,
		Logger:      logger,
	}, albumRepo, imageRepo, storageSvc, pool)

	userService := service.NewUserService(service.UserConfig{
		RegisterSecret: cfg.Auth.RegisterPassword,
		Bucket:         cfg.Storage.Bucket,
		BlobTimeout:    cfg.Storage.Timeout,
		Logger:         logger,
	}, userRepo, profileRepo, storageSvc)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(albumService, userService, tokens, logger, apphttp.Options{
		PProf:        cfg.Server.PProf,
		SecureCookie: cfg.Server.SecureCookie,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Backend == config.BackendMinio {
		svc, err := storage.NewMinioService(storage.MinioOptions{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKey,
			SecretAccessKey: cfg.Storage.SecretKey,
			UseSSL:          cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		logger.Infof("using minio bucket %s at %s", cfg.Storage.Bucket, cfg.Storage.Endpoint)
		return svc, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}
	if cfg.Storage.AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
