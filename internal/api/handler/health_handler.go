package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/airoverhead/flight-tracker/internal/core/ports"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/poller"
)

// DetectionStats reports the background sweep counters. Nil when automatic
// detection is disabled.
type DetectionStats interface {
	Stats() poller.Stats
}

// HealthHandler handles GET /api/health: credential and connectivity
// booleans plus the notified-aircraft count, so a front-end can tell which
// data sources are usable before querying.
type HealthHandler struct {
	openskyCreds     bool
	aerodataboxCreds bool
	tracker          ports.TrackerService
	notifier         ports.NotifierService
	redis            *redis.Client
	detection        DetectionStats
}

func NewHealthHandler(openskyCreds, aerodataboxCreds bool, tracker ports.TrackerService, notifier ports.NotifierService, rdb *redis.Client, detection DetectionStats) *HealthHandler {
	return &HealthHandler{
		openskyCreds:     openskyCreds,
		aerodataboxCreds: aerodataboxCreds,
		tracker:          tracker,
		notifier:         notifier,
		redis:            rdb,
		detection:        detection,
	}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	st := h.notifier.Status(ctx)

	resp := map[string]any{
		"status":                         "healthy",
		"timestamp":                      time.Now().UTC().Format(time.RFC3339),
		"opensky_credentials_loaded":     h.openskyCreds,
		"aerodatabox_credentials_loaded": h.aerodataboxCreds,
		"vestaboard_enabled":             st.Enabled,
		"vestaboard_connected":           st.Connected,
		"tracked_aircraft_count":         st.TrackedCount,
		"degraded_sources":               h.tracker.DisabledSources(),
		"apis":                           []string{"OpenSky", "AeroDataBox", "Vestaboard"},
	}

	if h.detection != nil {
		resp["auto_detection"] = h.detection.Stats()
	}

	if h.redis != nil {
		redisStatus := "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
		resp["snapshot_store"] = redisStatus
	}

	return c.JSON(http.StatusOK, resp)
}

// Index handles GET / — the API information page.
func (h *HealthHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "Flight Tracker Backend",
		"version": "1.0",
		"endpoints": map[string]string{
			"/api/aircraft":         "Get aircraft near a location",
			"/api/aircraft/details": "Get aircraft details by ICAO",
			"/api/health":           "Health check endpoint",
		},
	})
}
