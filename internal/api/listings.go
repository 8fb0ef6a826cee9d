package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rentdesk/server/config"
	"rentdesk/server/internal/database"
	"rentdesk/server/internal/estimate"
	"rentdesk/server/internal/models"
)

const geocodeTimeout = 30 * time.Second

type listingResponse struct {
	*models.Listing
	Estimate gin.H `json:"estimate"`
}

func newListingResponse(listing *models.Listing) listingResponse {
	est := estimate.Calculate(estimate.Attributes{
		CityZone:  listing.Zone,
		SizeSqm:   listing.SizeSqm,
		Bedrooms:  listing.Bedrooms,
		Furnished: listing.Furnished,
	})
	return listingResponse{Listing: listing, Estimate: estimateBody(est)}
}

func newListingResponses(listings []models.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, newListingResponse(&listings[i]))
	}
	return out
}

// ListPublicListings returns available listings, optionally for one zone
func (h *Handler) ListPublicListings(c *gin.Context) {
	filter := database.ListingFilter{Status: models.ListingAvailable}
	if zone := c.Query("zone"); zone != "" {
		filter.Zone = config.NormalizeZone(zone)
	}

	listings, err := h.db.ListListings(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newListingResponses(listings))
}

// GetPublicListing returns a listing unless it is hidden
func (h *Handler) GetPublicListing(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	listing, err := h.db.GetListing(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	if listing.Status == models.ListingHidden {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.JSON(http.StatusOK, newListingResponse(listing))
}

func (h *Handler) ListListings(c *gin.Context) {
	filter := database.ListingFilter{
		Status: models.ListingStatus(c.Query("status")),
		Zone:   config.NormalizeZone(c.Query("zone")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "field": "status"})
		return
	}

	listings, err := h.db.ListListings(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newListingResponses(listings))
}

// apply copies the request onto listing and reports whether the zone was
// set explicitly.
func (r *listingRequest) apply(listing *models.Listing) (bool, error) {
	if strings.TrimSpace(r.Title) == "" {
		return false, errors.New("title is required")
	}
	if r.Rent < 0 || r.SizeSqm < 0 || r.Bedrooms < 0 {
		return false, errors.New("rent, size_sqm and bedrooms cannot be negative")
	}

	status := models.ListingStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if status == "" {
		status = models.ListingAvailable
	}
	if !status.Valid() {
		return false, errors.New("status must be available, rented or hidden")
	}

	explicitZone := false
	if r.Zone != "" {
		zone := config.GetZoneByKey(r.Zone)
		if zone == nil {
			return false, errors.New("unknown zone")
		}
		listing.Zone = zone.Key
		explicitZone = true
	}

	listing.Title = strings.TrimSpace(r.Title)
	listing.Address = strings.TrimSpace(r.Address)
	listing.PostalCode = strings.TrimSpace(r.PostalCode)
	listing.City = strings.TrimSpace(r.City)
	listing.Rent = r.Rent
	listing.SizeSqm = r.SizeSqm
	listing.Bedrooms = r.Bedrooms
	listing.Furnished = r.Furnished
	listing.Status = status
	listing.Description = r.Description
	return explicitZone, nil
}

func (h *Handler) CreateListing(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	listing := &models.Listing{Zone: config.DefaultZoneKey}
	explicitZone, err := req.apply(listing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.CreateListing(c.Request.Context(), listing); err != nil {
		h.respondError(c, err, nil)
		return
	}

	h.geocodeListing(*listing, explicitZone)
	c.JSON(http.StatusCreated, newListingResponse(listing))
}

func (h *Handler) UpdateListing(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	listing, err := h.db.GetListing(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	previousAddress := addressKey(listing)

	explicitZone, err := req.apply(listing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.UpdateListing(c.Request.Context(), listing); err != nil {
		h.respondError(c, err, nil)
		return
	}

	if addressKey(listing) != previousAddress || listing.Latitude == nil {
		h.geocodeListing(*listing, explicitZone)
	}
	c.JSON(http.StatusOK, newListingResponse(listing))
}

func (h *Handler) DeleteListing(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.db.DeleteListing(c.Request.Context(), id); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func addressKey(listing *models.Listing) string {
	return strings.ToLower(listing.Address + "|" + listing.PostalCode + "|" + listing.City)
}

// geocodeListing resolves coordinates in the background and derives the zone
// from them unless one was set explicitly.
func (h *Handler) geocodeListing(listing models.Listing, explicitZone bool) {
	if h.locator == nil || listing.Address == "" {
		return
	}

	h.background.Add(1)
	go func() {
		defer h.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), geocodeTimeout)
		defer cancel()

		if err := h.locator.Locate(ctx, listing, explicitZone); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"address":    listing.Address,
			}).Warn("Failed to geocode listing")
		}
	}()
}
