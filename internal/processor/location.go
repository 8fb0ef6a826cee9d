// Package processor resolves listing coordinates and zones.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rentdesk/server/config"
	"rentdesk/server/internal/geocoding"
	"rentdesk/server/internal/geometry"
	"rentdesk/server/internal/models"
)

// Geocoder resolves a postal address to coordinates
type Geocoder interface {
	GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error)
}

// LocationStore is the listing persistence the processor needs
type LocationStore interface {
	ListListingsWithoutCoordinates(ctx context.Context, limit int) ([]models.Listing, error)
	UpdateListingLocation(ctx context.Context, id uuid.UUID, lat, lng float64, zone string) error
}

type Options struct {
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
}

// LocationProcessor geocodes listings and derives their pricing zone
type LocationProcessor struct {
	store    LocationStore
	geocoder Geocoder
	logger   *logrus.Logger
	opts     Options
}

func NewLocationProcessor(store LocationStore, geocoder Geocoder, opts Options, logger *logrus.Logger) *LocationProcessor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &LocationProcessor{
		store:    store,
		geocoder: geocoder,
		logger:   logger,
		opts:     opts,
	}
}

// Locate geocodes one listing and stores its coordinates. The zone is derived
// from the coordinates unless keepZone is set.
func (p *LocationProcessor) Locate(ctx context.Context, listing models.Listing, keepZone bool) error {
	if listing.Address == "" {
		return nil
	}

	var lat, lng float64
	var err error
	for attempt := 0; attempt <= p.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying geocoding, attempt %d of %d", attempt, p.opts.MaxRetries)
			select {
			case <-time.After(p.opts.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lat, lng, err = p.geocoder.GeocodeAddress(ctx, listing.Address, listing.PostalCode, listing.City)
		if err == nil || errors.Is(err, geocoding.ErrNoResults) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to geocode listing %s: %w", listing.ID, err)
	}

	zone := ""
	if !keepZone {
		zone = geometry.Locate(lat, lng)
	}
	if err := p.store.UpdateListingLocation(ctx, listing.ID, lat, lng, zone); err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"zone":       zone,
	}).Info("Listing geocoded")
	return nil
}

// ProcessMissing geocodes one batch of listings without coordinates and
// returns how many were located. A zone other than the default counts as
// chosen by hand and is kept.
func (p *LocationProcessor) ProcessMissing(ctx context.Context) (int, error) {
	listings, err := p.store.ListListingsWithoutCoordinates(ctx, p.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	located := 0
	for _, listing := range listings {
		if ctx.Err() != nil {
			return located, ctx.Err()
		}
		keepZone := listing.Zone != "" && listing.Zone != config.DefaultZoneKey
		if err := p.Locate(ctx, listing, keepZone); err != nil {
			p.logger.WithError(err).WithField("listing_id", listing.ID).Warn("Failed to locate listing")
			continue
		}
		located++
	}

	if len(listings) > 0 {
		p.logger.Infof("Located %d of %d listings without coordinates", located, len(listings))
	}
	return located, nil
}
