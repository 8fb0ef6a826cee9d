package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rentdesk/server/config"
	"rentdesk/server/internal/auth"
	"rentdesk/server/internal/database"
	"rentdesk/server/internal/estimate"
	"rentdesk/server/internal/geometry"
	"rentdesk/server/internal/intake"
	"rentdesk/server/internal/models"
)

// ListingLocator stores coordinates and zone of a listing
type ListingLocator interface {
	Locate(ctx context.Context, listing models.Listing, keepZone bool) error
}

// Options are the collaborators of a Handler besides the database
type Options struct {
	Leads    *intake.Service
	Tokens   *auth.Tokens
	Locator  ListingLocator // nil disables listing geocoding
	Site     config.SiteSettings
	// Development exposes internal error details in responses
	Development bool
}

type Handler struct {
	db          *database.Database
	logger      *logrus.Logger
	leads       *intake.Service
	tokens      *auth.Tokens
	locator     ListingLocator
	site        config.SiteSettings
	development bool

	// tracks background geocoding so shutdown can wait for it
	background sync.WaitGroup
}

func NewHandler(db *database.Database, opts Options, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:          db,
		logger:      logger,
		leads:       opts.Leads,
		tokens:      opts.Tokens,
		locator:     opts.Locator,
		site:        opts.Site,
		development: opts.Development,
	}
}

// Wait blocks until background work started by requests has finished
func (h *Handler) Wait() {
	h.background.Wait()
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPublicSettings returns the contact details shown on the website
func (h *Handler) GetPublicSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"whatsapp_number": h.site.WhatsAppNumber,
		"contact_email":   h.site.ContactEmail,
	})
}

type zoneResponse struct {
	config.Zone
	Multiplier int `json:"multiplier"`
}

// GetZones returns the zone catalogue with the price per square meter of each zone
func (h *Handler) GetZones(c *gin.Context) {
	zones := make([]zoneResponse, 0, len(config.SupportedZones))
	for _, zone := range config.SupportedZones {
		zones = append(zones, zoneResponse{Zone: zone, Multiplier: estimate.Multiplier(zone.Key)})
	}
	c.JSON(http.StatusOK, zones)
}

func (h *Handler) GetZonesGeoJSON(c *gin.Context) {
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, geometry.FeatureCollection())
}

// respondError maps service errors to status codes. Details of unexpected
// errors are only included in development.
func (h *Handler) respondError(c *gin.Context, err error, extra gin.H) {
	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}

	var validationErr *intake.ValidationError
	var persistenceErr *intake.PersistenceError
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body["error"] = validationErr.Error()
		body["field"] = validationErr.Field
	case errors.Is(err, intake.ErrNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		body["error"] = "Not found"
	case errors.Is(err, intake.ErrWrongStep):
		status = http.StatusBadRequest
		body["error"] = err.Error()
	case errors.As(err, &persistenceErr):
		body["error"] = "Failed to " + persistenceErr.Op
		if h.development {
			body["details"] = persistenceErr.Err.Error()
		}
	default:
		body["error"] = "Internal server error"
		if h.development {
			body["details"] = err.Error()
		}
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.JSON(status, body)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	body := gin.H{"error": "Invalid request body"}
	if h.development && err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
