// Package videoapi exposes the video operations over HTTP.
//
// Routes, relative to the router they are registered on:
//
//	GET    /health
//	POST   /upload
//	GET    /videos
//	POST   /videos/cleanup
//	GET    /videos/:id
//	GET    /videos/:id/stream
//	DELETE /videos/:id
package videoapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/catalog"
	"github.com/rise-and-shine/vidstream/http/server/middleware"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/reconcile"
	"github.com/rise-and-shine/vidstream/streaming"
	"github.com/rise-and-shine/vidstream/upload"
	"github.com/rise-and-shine/vidstream/video"
)

// FormFieldVideo is the multipart field carrying the uploaded file.
const FormFieldVideo = "video"

// Config tunes the handlers.
type Config struct {
	HideErrorDetails bool

	// HandleTimeout bounds the JSON endpoints. Upload and stream are not bounded by it.
	HandleTimeout time.Duration

	// StrayBlobGrace is the minimum age of a blob removed by /videos/cleanup?blobs=true.
	StrayBlobGrace time.Duration
}

// Deps are the use cases served by the handlers.
type Deps struct {
	Upload    *upload.Service
	Catalog   *catalog.Service
	Streaming *streaming.Engine
	Reconcile *reconcile.Engine
	Status    video.StatusProvider
}

// Handler serves the video routes.
type Handler struct {
	cfg  Config
	deps Deps
	log  logger.Logger
}

// New creates a Handler.
func New(cfg Config, deps Deps) *Handler {
	return &Handler{cfg: cfg, deps: deps, log: logger.Named("videoapi")}
}

// Register mounts the routes on r.
func (h *Handler) Register(r fiber.Router) {
	bounded := middleware.Timeout(h.cfg.HandleTimeout)

	r.Get("/health", bounded, h.health)
	r.Post("/upload", h.upload)

	videos := r.Group("/videos")
	videos.Get("/", bounded, h.list)
	videos.Post("/cleanup", bounded, h.cleanup)
	videos.Get("/:id", bounded, h.get)
	videos.Get("/:id/stream", h.stream)
	videos.Delete("/:id", bounded, h.delete)
}
