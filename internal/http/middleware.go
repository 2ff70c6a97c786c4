package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"image-library/internal/domain"
	"image-library/internal/metrics"
)

const (
	sessionCookie = "session"
	principalKey  = "principal"
)

func accessLog(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(latency.Seconds())

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": latency.String(),
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// requireAuth rejects requests without a valid session token.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.authenticate(c)
		if err != nil {
			writeError(c, h.logger, err)
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// optionalAuth records the principal when a valid token is present and lets
// anonymous requests through.
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, err := h.authenticate(c); err == nil {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

func (h *Handler) authenticate(c *gin.Context) (*domain.Principal, error) {
	raw := bearerToken(c.GetHeader("Authorization"))
	if raw == "" {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			raw = cookie
		}
	}
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	return h.tokens.Parse(raw)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// principal returns the caller identity, or nil for anonymous requests.
func principal(c *gin.Context) *domain.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Principal)
	return p
}
