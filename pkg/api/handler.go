package api

import (
	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/ingest"
	"github.com/finsight/marketcal/pkg/storage"
)

// Handler contains all properties to serve the API
type Handler struct {
	store  storage.Interface
	ingest *ingest.Service
}

// NewHandler create a new API handler
func NewHandler(store storage.Interface, svc *ingest.Service) *Handler {
	return &Handler{
		store:  store,
		ingest: svc,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")
	api.GET("/events", h.handleFetchEvents)
	api.PUT("/events/:id", h.handleUpdateEvent)
	api.POST("/ingest", h.handleTriggerIngest)
}
