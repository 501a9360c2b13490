// Package handler wires the HTTP surface to the domain services.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
	"schoolattend/internal/cloudinary"
	"schoolattend/internal/config"
	"schoolattend/internal/facematch"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/queue"
	"schoolattend/internal/roster"
	"schoolattend/internal/store"
)

// Handler holds every dependency the routes need.
type Handler struct {
	cfg        config.App
	db         *store.DB
	redis      *store.Redis
	roster     *roster.Repository
	attendance *attendance.Repository
	reconciler *attendance.Service
	users      *auth.Repository
	matcher    *facematch.Matcher
	face       *faceclient.Client
	jobs       queue.Queue
	cloud      *cloudinary.Client // nil when not configured
}

// New creates a handler.
func New(
	cfg config.App,
	db *store.DB,
	redis *store.Redis,
	rosterRepo *roster.Repository,
	attRepo *attendance.Repository,
	reconciler *attendance.Service,
	users *auth.Repository,
	matcher *facematch.Matcher,
	face *faceclient.Client,
	jobs queue.Queue,
	cloud *cloudinary.Client,
) *Handler {
	return &Handler{
		cfg:        cfg,
		db:         db,
		redis:      redis,
		roster:     rosterRepo,
		attendance: attRepo,
		reconciler: reconciler,
		users:      users,
		matcher:    matcher,
		face:       face,
		jobs:       jobs,
		cloud:      cloud,
	}
}

// Healthz reports database and redis connectivity.
func (h *Handler) Healthz(c *gin.Context) {
	redisHealthy := h.redis.Healthy(c.Request.Context())
	dbHealthy := h.db != nil && h.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// pathID parses a positive int64 path parameter, aborting with 422 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrNotFound), errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, faceclient.ErrNoFace):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
