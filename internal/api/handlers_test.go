package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/server/config"
	"rentdesk/server/internal/auth"
	"rentdesk/server/internal/database"
	"rentdesk/server/internal/intake"
	"rentdesk/server/internal/models"
	"rentdesk/server/internal/processor"
	"rentdesk/server/internal/ratelimit"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	leads []models.Lead
}

func (d *recordingDispatcher) Dispatch(lead models.Lead) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leads = append(d.leads, lead)
}

// failingStore cannot write leads
type failingStore struct {
	*database.Database
}

func (s failingStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	return errors.New("database is locked")
}

type fakeGeocoder struct {
	lat, lng float64
	err      error
}

func (g fakeGeocoder) GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error) {
	return g.lat, g.lng, g.err
}

type testEnv struct {
	router     *gin.Engine
	handler    *Handler
	db         *database.Database
	dispatcher *recordingDispatcher
	user       *models.User
	token      string
}

type envOptions struct {
	development bool
	failingLead bool
	geocoder    processor.Geocoder
	limiter     *ratelimit.Limiter
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()

	db, err := database.NewDatabase("sqlite", filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	var store intake.Store = db
	if opts.failingLead {
		store = failingStore{db}
	}
	dispatcher := &recordingDispatcher{}
	tokens := auth.NewTokens("test-secret", time.Hour)

	var locator ListingLocator
	if opts.geocoder != nil {
		locator = processor.NewLocationProcessor(db, opts.geocoder, processor.Options{}, logger)
	}

	handler := NewHandler(db, Options{
		Leads:       intake.NewService(store, dispatcher, logger),
		Tokens:      tokens,
		Locator:     locator,
		Site:        config.SiteSettings{WhatsAppNumber: "+31201234567", ContactEmail: "info@example.nl", NotificationEmail: "leads@example.nl"},
		Development: opts.development,
	}, logger)

	router := gin.New()
	SetupRoutes(router, handler, opts.limiter, []string{"http://localhost:3000"}, logger)

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	user := &models.User{Name: "Admin", Email: "admin@example.nl", PasswordHash: hash, Role: models.RoleAdmin}
	require.NoError(t, db.CreateUser(context.Background(), user))
	token, _, err := tokens.Issue(user.ID, user.Email)
	require.NoError(t, err)

	return &testEnv{
		router:     router,
		handler:    handler,
		db:         db,
		dispatcher: dispatcher,
		user:       user,
		token:      token,
	}
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func leadCount(t *testing.T, db *database.Database) int64 {
	t.Helper()
	_, total, err := db.ListLeads(context.Background(), models.LeadFilter{})
	require.NoError(t, err)
	return total
}

func calculatorBody(email string, consent bool) map[string]interface{} {
	return map[string]interface{}{
		"property": map[string]interface{}{
			"city_zone": "amsterdam-centrum",
			"size_sqm":  "80m2",
			"bedrooms":  2,
			"furnished": false,
			"address":   "Keizersgracht 100",
			"city":      "Amsterdam",
		},
		"contact": map[string]interface{}{
			"name":        "Pieter Bakker",
			"email":       email,
			"phone":       "+31612345678",
			"source_page": "/verhuren",
			"consent":     consent,
		},
	}
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestEstimate(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	tests := []struct {
		name     string
		body     string
		wantMin  float64
		wantMax  float64
		wantDays float64
	}{
		{
			name:    "Size with unit",
			body:    `{"city_zone":"amsterdam-centrum","size_sqm":"80m2"}`,
			wantMin: 2150, wantMax: 2650, wantDays: 17,
		},
		{
			name:    "Numeric size",
			body:    `{"city_zone":"amsterdam-west","size_sqm":110}`,
			wantMin: 2500, wantMax: 3050, wantDays: 21,
		},
		{
			name:    "Furnished as string",
			body:    `{"city_zone":"Amsterdam Zuid","size_sqm":100,"furnished":"yes"}`,
			wantMin: 2800, wantMax: 3400, wantDays: 12,
		},
		{
			name:    "Defaults",
			body:    `{"city_zone":"amsterdam-oost","size_sqm":"abc"}`,
			wantMin: 1750, wantMax: 2100, wantDays: 21,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/estimate", tt.body, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, tt.wantMin, body["min_rent"])
			assert.Equal(t, tt.wantMax, body["max_rent"])
			assert.Equal(t, tt.wantDays, body["estimated_days_to_let"])
			assert.NotEmpty(t, body["formatted"])
		})
	}

	w := env.do(http.MethodPost, "/api/estimate", `{broken`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitCalculator(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodPost, "/api/calculator/submit", calculatorBody("pieter@example.nl", true), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["saved"])
	leadID, err := uuid.Parse(body["leadId"].(string))
	require.NoError(t, err)

	est := body["estimate"].(map[string]interface{})
	assert.Equal(t, float64(2150), est["min_rent"])
	assert.Equal(t, "€2150 - €2650", est["formatted"])

	lead, err := env.db.GetLead(context.Background(), leadID)
	require.NoError(t, err)
	assert.Equal(t, "€2150 - €2650", lead.EstimatedRent)
	assert.Equal(t, "Keizersgracht 100", lead.Address)
	assert.Len(t, env.dispatcher.leads, 1)
}

func TestSubmitCalculatorValidation(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{name: "Missing email", body: calculatorBody("", true), wantField: "email"},
		{name: "No consent", body: calculatorBody("pieter@example.nl", false), wantField: "consent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/calculator/submit", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantField, decode(t, w)["field"])
		})
	}

	assert.Equal(t, int64(0), leadCount(t, env.db))
	assert.Empty(t, env.dispatcher.leads)
}

func TestSubmitCalculatorPersistenceFailure(t *testing.T) {
	tests := []struct {
		name        string
		development bool
	}{
		{name: "Production hides details", development: false},
		{name: "Development shows details", development: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, envOptions{development: tt.development, failingLead: true})

			w := env.do(http.MethodPost, "/api/calculator/submit", calculatorBody("pieter@example.nl", true), "")
			require.Equal(t, http.StatusInternalServerError, w.Code)

			body := decode(t, w)
			assert.Equal(t, "Failed to save lead", body["error"])
			assert.Equal(t, false, body["saved"])
			assert.Equal(t, float64(2150), body["estimate"].(map[string]interface{})["min_rent"])

			details, hasDetails := body["details"]
			assert.Equal(t, tt.development, hasDetails)
			if tt.development {
				assert.Equal(t, "database is locked", details)
			}
		})
	}
}

func TestCreateLead(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodPost, "/api/leads", map[string]interface{}{
		"name":      "Noor",
		"email":     "noor@example.nl",
		"leadType":  "TENANT",
		"source":    "tenant_page",
		"size":      "65",
		"furnished": true,
		"message":   "Looking for a flat in Oost",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	lead, err := env.db.GetLead(context.Background(), uuid.MustParse(body["leadId"].(string)))
	require.NoError(t, err)
	require.NotNil(t, lead.Size)
	assert.Equal(t, 65, *lead.Size)
	require.NotNil(t, lead.Furnished)
	assert.True(t, *lead.Furnished)
	assert.Nil(t, lead.Bedrooms)

	w = env.do(http.MethodPost, "/api/leads", map[string]interface{}{
		"name":  "Noor",
		"email": "noor@example.nl",
		"source": "tenant_page",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "leadType", decode(t, w)["field"])
	assert.Equal(t, int64(1), leadCount(t, env.db))
}

func TestTrackEvent(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodPost, "/api/analytics", `{"type":"whatsapp_click","page":"/contact","metadata":{"position":"footer"}}`, "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(http.MethodPost, "/api/analytics", `{"type":"page_view"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/admin/analytics/summary", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["whatsapp_click"])
	assert.Equal(t, float64(0), body["pdf_download"])
}

func TestAdminRequiresAuth(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	otherTokens := auth.NewTokens("other-secret", time.Hour)
	forged, _, err := otherTokens.Issue(env.user.ID, env.user.Email)
	require.NoError(t, err)
	unknownUser, _, err := auth.NewTokens("test-secret", time.Hour).Issue(uuid.New(), "ghost@example.nl")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "No token", token: ""},
		{name: "Wrong secret", token: forged},
		{name: "Unknown user", token: unknownUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/admin/leads", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodPost, "/api/auth/login", `{"email":"Admin@Example.nl","password":"correct horse"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	token := body["token"].(string)
	assert.NotEmpty(t, token)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "admin@example.nl", user["email"])
	assert.NotContains(t, user, "PasswordHash")

	w = env.do(http.MethodGet, "/api/admin/leads", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", `{"email":"admin@example.nl","password":"wrong horse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", `{"email":"nobody@example.nl","password":"correct horse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLeadWorkflow(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodPost, "/api/leads", `{"name":"Noor","email":"noor@example.nl","leadType":"LANDLORD","source":"landlord_page"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["leadId"].(string)

	w = env.do(http.MethodPatch, "/api/admin/leads/"+leadID, map[string]interface{}{
		"status":       "IN_PROGRESS",
		"assignedToId": env.user.ID.String(),
	}, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "IN_PROGRESS", body["status"])
	events := body["events"].([]interface{})
	require.Len(t, events, 3)
	assert.Equal(t, "status_change", events[1].(map[string]interface{})["type"])
	assert.Equal(t, env.user.ID.String(), events[1].(map[string]interface{})["actor_id"])

	w = env.do(http.MethodPatch, "/api/admin/leads/"+leadID, `{"status":"ARCHIVED"}`, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", decode(t, w)["field"])

	w = env.do(http.MethodPatch, "/api/admin/leads/"+uuid.NewString(), `{"status":"WON"}`, env.token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPatch, "/api/admin/leads/not-an-id", `{"status":"WON"}`, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/admin/leads/"+leadID+"/notes", `{"content":"Viewing planned"}`, env.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/admin/leads/"+leadID+"/notes", `{"content":""}`, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/admin/leads/"+leadID, nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	notes := body["notes"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, "Viewing planned", notes[0].(map[string]interface{})["content"])
	assert.Len(t, body["events"].([]interface{}), 4)

	w = env.do(http.MethodGet, "/api/admin/leads?status=IN_PROGRESS", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = env.do(http.MethodGet, "/api/admin/leads?status=in_progress&lead_type=landlord", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = env.do(http.MethodGet, "/api/admin/leads?status=WON", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])

	w = env.do(http.MethodGet, "/api/admin/leads?status=archived", nil, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", decode(t, w)["field"])
}

func TestPublicSettings(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodGet, "/api/settings/public", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "+31201234567", body["whatsapp_number"])
	assert.Equal(t, "info@example.nl", body["contact_email"])
	assert.NotContains(t, body, "notification_email")
}

func TestZones(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(http.MethodGet, "/api/zones", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var zones []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	require.Len(t, zones, len(config.SupportedZones))
	assert.Equal(t, "amsterdam-centrum", zones[0]["key"])
	assert.Equal(t, float64(30), zones[0]["multiplier"])

	w = env.do(http.MethodGet, "/api/zones.geojson", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FeatureCollection", decode(t, w)["type"])
}

func TestListings(t *testing.T) {
	// Dam Square
	env := setupTestEnv(t, envOptions{geocoder: fakeGeocoder{lat: 52.3731, lng: 4.8926}})

	w := env.do(http.MethodPost, "/api/admin/listings", map[string]interface{}{
		"title":    "Canal house apartment",
		"address":  "Damrak 1",
		"city":     "Amsterdam",
		"rent":     2400,
		"size_sqm": 80,
	}, env.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, "available", created["status"])
	assert.NotNil(t, created["estimate"])

	env.handler.Wait()

	w = env.do(http.MethodGet, "/api/listings/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "amsterdam-centrum", body["zone"])
	assert.InDelta(t, 52.3731, body["latitude"], 1e-9)
	assert.Equal(t, float64(2150), body["estimate"].(map[string]interface{})["min_rent"])

	// An explicit zone is kept even when the address moves
	w = env.do(http.MethodPut, "/api/admin/listings/"+id, map[string]interface{}{
		"title":   "Canal house apartment",
		"address": "Damrak 2",
		"city":    "Amsterdam",
		"zone":    "Amsterdam West",
		"status":  "hidden",
	}, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.handler.Wait()

	listing, err := env.db.GetListing(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	assert.Equal(t, "amsterdam-west", listing.Zone)

	// Hidden listings are not public
	w = env.do(http.MethodGet, "/api/listings/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, "/api/listings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = env.do(http.MethodGet, "/api/admin/listings?status=hidden", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	var listings []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listings))
	assert.Len(t, listings, 1)

	w = env.do(http.MethodPost, "/api/admin/listings", `{"title":"Somewhere","zone":"atlantis"}`, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/admin/listings", `{"title":""}`, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, "/api/admin/listings/"+id, nil, env.token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodDelete, "/api/admin/listings/"+id, nil, env.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingGeocodingFailureKeepsListing(t *testing.T) {
	env := setupTestEnv(t, envOptions{geocoder: fakeGeocoder{err: errors.New("no results")}})

	w := env.do(http.MethodPost, "/api/admin/listings", `{"title":"Studio","address":"Unknown 1","city":"Nowhere"}`, env.token)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	env.handler.Wait()

	listing, err := env.db.GetListing(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	assert.Nil(t, listing.Latitude)
	assert.Equal(t, config.DefaultZoneKey, listing.Zone)
}

func TestRateLimit(t *testing.T) {
	env := setupTestEnv(t, envOptions{limiter: ratelimit.NewLimiter(1, time.Hour, 2)})

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/api/analytics", `{"type":"phone_click"}`, "")
		assert.Equal(t, http.StatusAccepted, w.Code)
	}

	w := env.do(http.MethodPost, "/api/analytics", `{"type":"phone_click"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are not limited
	w = env.do(http.MethodGet, "/api/zones", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
