package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

// AircraftHandler serves the geographic query and detail endpoints.
type AircraftHandler struct {
	tracker ports.TrackerService
}

func NewAircraftHandler(tracker ports.TrackerService) *AircraftHandler {
	return &AircraftHandler{tracker: tracker}
}

// GetNearby handles GET /api/aircraft — aircraft near a location.
//
// @Summary      List aircraft near a position
// @Tags         aircraft
// @Produce      json
// @Param        lat     query  number  true   "Latitude in degrees"
// @Param        lon     query  number  true   "Longitude in degrees"
// @Param        radius  query  number  false  "Radius in km (default 3)"
// @Success      200  {array}   ports.NearbyAircraft
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/aircraft [get]
func (h *AircraftHandler) GetNearby(c echo.Context) error {
	var req nearbyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid parameter format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	radius := float64(defaultRadiusKm)
	if req.Radius != nil {
		radius = *req.Radius
	}

	aircraft, err := h.tracker.GetNearby(c.Request().Context(), ports.NearbyInput{
		Lat:      *req.Lat,
		Lon:      *req.Lon,
		RadiusKm: radius,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, aircraft)
}

// GetDetails handles GET /api/aircraft/details — full enrichment for one
// aircraft.
//
// @Summary      Get aircraft details by ICAO24
// @Tags         aircraft
// @Produce      json
// @Param        icao24  query  string  true  "ICAO24 transponder address"
// @Success      200  {object}  ports.AircraftDetail
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/aircraft/details [get]
func (h *AircraftHandler) GetDetails(c echo.Context) error {
	var req detailsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid parameter format")
	}

	detail, err := h.tracker.GetDetails(c.Request().Context(), req.ICAO24)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}
