package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"image-library/internal/auth"
	"image-library/internal/service"
)

// Options tune the router beyond the wired services.
type Options struct {
	// PProf mounts the runtime profiling routes under /debug/pprof.
	PProf bool
	// SecureCookie marks the session cookie as HTTPS only.
	SecureCookie bool
	// MaxUploadBytes bounds the in-memory part of a multipart form.
	MaxUploadBytes int64
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	albums service.AlbumService
	users  service.UserService
	tokens *auth.TokenManager
	logger *logrus.Logger
	opts   Options
}

func NewHandler(albums service.AlbumService, users service.UserService, tokens *auth.TokenManager, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{
		albums: albums,
		users:  users,
		tokens: tokens,
		logger: logger,
		opts:   opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.MaxMultipartMemory = h.opts.MaxUploadBytes
	router.Use(accessLog(h.logger))
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", h.index)
	router.GET("/hello/", h.helloWorld)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/login/", h.login)
	router.POST("/logout/", h.logout)
	router.POST("/password_change/", h.requireAuth(), h.changePassword)

	create := router.Group("/create")
	{
		// Album deletion historically needs no session.
		create.POST("/delete_album/:id", h.optionalAuth(), h.deleteAlbum)

		authed := create.Group("", h.requireAuth())
		authed.GET("/dashboard/", h.dashboard)
		authed.GET("/create-album/", h.createAlbumForm)
		authed.POST("/create-album/", h.createAlbum)
		authed.GET("/view/", h.viewAlbums)
		authed.GET("/gallery/:id", h.viewAlbumImages)
		authed.GET("/pics/:id", h.viewAlbumImages)
		authed.GET("/delete_images/:id", h.deleteImage)
		authed.POST("/delete_images/:id", h.deleteImage)
		authed.GET("/upload/:id", h.uploadForm)
		authed.POST("/upload/:id", h.uploadImages)
	}

	register := router.Group("/register")
	{
		register.GET("/register/", h.registerForm)
		register.POST("/register/", h.register)
		register.GET("/profile/", h.requireAuth(), h.profile)
		register.POST("/profile/", h.requireAuth(), h.updateProfile)
	}

	if h.opts.PProf {
		pprof.Register(router)
	}
}

func (h *Handler) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "image-library",
		"links": gin.H{
			"register":  "/register/register/",
			"login":     "/login/",
			"dashboard": "/create/dashboard/",
			"albums":    "/create/view/",
		},
	})
}

func (h *Handler) helloWorld(c *gin.Context) {
	c.String(http.StatusOK, "Hello, World!")
}
