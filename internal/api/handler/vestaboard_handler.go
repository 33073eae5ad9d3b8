package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

// VestaboardHandler serves the display-integration endpoints.
type VestaboardHandler struct {
	notifier ports.NotifierService
}

func NewVestaboardHandler(notifier ports.NotifierService) *VestaboardHandler {
	return &VestaboardHandler{notifier: notifier}
}

// Status handles GET /api/vestaboard/status.
func (h *VestaboardHandler) Status(c echo.Context) error {
	st := h.notifier.Status(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{
		"vestaboard_enabled":     st.Enabled,
		"vestaboard_connected":   st.Connected,
		"tracked_aircraft_count": st.TrackedCount,
		"tracked_aircraft":       st.TrackedSample,
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	})
}

// Test handles GET /api/vestaboard/test — sends a timestamped test message.
func (h *VestaboardHandler) Test(c echo.Context) error {
	if err := h.notifier.SendTest(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{
		Status:    "success",
		Message:   "Test message sent successfully",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Notify handles POST /api/vestaboard/notify — a front-end-triggered
// notification for one aircraft, gated by the dedup set.
func (h *VestaboardHandler) Notify(c echo.Context) error {
	var req notifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no data provided")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sent, err := h.notifier.Notify(c.Request().Context(), toNotifyInput(req.Aircraft))
	if err != nil {
		return err
	}
	if !sent {
		return echo.NewHTTPError(http.StatusConflict, "aircraft already notified")
	}
	return c.JSON(http.StatusOK, statusResponse{
		Status:    "success",
		Message:   "Notification sent successfully",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// toNotifyInput maps the HTTP request to the service DTO.
func toNotifyInput(a *notifyAircraft) ports.NotifyInput {
	operator := a.Operator
	if operator == "" {
		operator = a.Owner
	}
	return ports.NotifyInput{
		ICAO24:          a.ICAO24,
		Callsign:        a.Callsign,
		Registration:    a.Registration,
		Operator:        operator,
		RegisteredOwner: a.RegisteredOwner,
		Country:         a.Country,
		Manufacturer:    a.Manufacturer,
		Model:           a.Model,
		AircraftType:    a.AircraftType,
		AltitudeFt:      a.Altitude,
		SpeedKt:         parseSpeed(a.Speed),
		HeadingDeg:      a.Heading,
		PositionText:    a.Position,
	}
}
