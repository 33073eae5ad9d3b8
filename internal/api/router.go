package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/api/handler"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

// Deps carries everything the router wires into handlers. The Redis client
// is nil when the snapshot store is not configured.
type Deps struct {
	Tracker          ports.TrackerService
	Notifier         ports.NotifierService
	OpenSkyCreds     bool
	AeroDataBoxCreds bool
	Redis            *redis.Client
	Detection        handler.DetectionStats
	Log              zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("flighttracker"))

	// --- Handlers ---
	aircraftHandler := handler.NewAircraftHandler(deps.Tracker)
	vestaboardHandler := handler.NewVestaboardHandler(deps.Notifier)
	healthHandler := handler.NewHealthHandler(
		deps.OpenSkyCreds, deps.AeroDataBoxCreds, deps.Tracker, deps.Notifier, deps.Redis, deps.Detection)

	// --- Routes ---
	e.GET("/", healthHandler.Index)
	e.GET("/api/health", healthHandler.Health)
	e.GET("/api/aircraft", aircraftHandler.GetNearby)
	e.GET("/api/aircraft/details", aircraftHandler.GetDetails)
	e.GET("/api/vestaboard/status", vestaboardHandler.Status)
	e.GET("/api/vestaboard/test", vestaboardHandler.Test)
	e.POST("/api/vestaboard/notify", vestaboardHandler.Notify)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
