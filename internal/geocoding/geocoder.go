package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"
	cacheFileName  = "geocode_cache.json"
	userAgent      = "RentDesk Listings/1.0"
)

var ErrNoResults = errors.New("no results found for address")

// Geocoder resolves addresses with Nominatim. Results are cached in memory and,
// when a cache directory is set, on disk.
type Geocoder struct {
	logger    *logrus.Logger
	baseURL   string
	delay     time.Duration
	cacheDir  string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	// serializes outbound requests so the delay applies between them
	requestLock sync.Mutex
	client      *http.Client
}

func NewGeocoder(logger *logrus.Logger, baseURL, cacheDir string, delay time.Duration) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	g := &Geocoder{
		logger:   logger,
		baseURL:  baseURL,
		delay:    delay,
		cacheDir: cacheDir,
		cache:    make(map[string][]float64),
		client:   &http.Client{Timeout: 10 * time.Second},
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
		g.loadCache()
	}

	return g
}

func (g *Geocoder) loadCache() {
	cacheFile := filepath.Join(g.cacheDir, cacheFileName)
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warnf("Could not load geocode cache: %v", err)
		}
		return
	}

	g.cacheLock.Lock()
	defer g.cacheLock.Unlock()
	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.cacheDir == "" {
		return
	}

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	cacheFile := filepath.Join(g.cacheDir, cacheFileName)
	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
	}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(street, postalCode, city string) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s",
		strings.TrimSpace(street), strings.TrimSpace(postalCode), strings.TrimSpace(city)))
}

// GeocodeAddress returns latitude and longitude of a Dutch address
func (g *Geocoder) GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error) {
	key := cacheKey(street, postalCode, city)
	fullAddress := fmt.Sprintf("%s, %s, %s, Netherlands", street, postalCode, city)

	if lat, lon, ok := g.cached(key); ok {
		g.logger.WithFields(logrus.Fields{
			"address": fullAddress,
			"source":  "cache",
		}).Debug("Found coordinates in cache")
		return lat, lon, nil
	}

	g.requestLock.Lock()
	defer g.requestLock.Unlock()

	// Another caller may have resolved it while we waited
	if lat, lon, ok := g.cached(key); ok {
		return lat, lon, nil
	}

	lat, lon, err := g.query(ctx, fullAddress)
	if err != nil {
		return 0, 0, err
	}

	g.cacheLock.Lock()
	g.cache[key] = []float64{lat, lon}
	g.cacheLock.Unlock()
	g.saveCache()

	// Respect Nominatim's usage policy
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
		}
	}

	return lat, lon, nil
}

func (g *Geocoder) cached(key string) (float64, float64, bool) {
	g.cacheLock.RLock()
	defer g.cacheLock.RUnlock()
	coords, ok := g.cache[key]
	if !ok || len(coords) != 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

func (g *Geocoder) query(ctx context.Context, fullAddress string) (float64, float64, error) {
	g.logger.WithField("address", fullAddress).Info("Geocoding address with Nominatim")

	params := url.Values{
		"q":            []string{fullAddress},
		"format":       []string{"json"},
		"limit":        []string{"1"},
		"countrycodes": []string{"nl"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", fullAddress).Error("Geocoding request failed")
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.logger.WithError(err).WithField("address", fullAddress).Error("Failed to parse response")
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result) == 0 {
		g.logger.WithField("address", fullAddress).Warn("No results found")
		return 0, 0, fmt.Errorf("%w: %s", ErrNoResults, fullAddress)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse longitude: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"address":   fullAddress,
		"latitude":  lat,
		"longitude": lon,
	}).Info("Successfully geocoded address")

	return lat, lon, nil
}
