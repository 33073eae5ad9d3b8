package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

// NearbyInput carries the parameters of a geographic aircraft query.
type NearbyInput struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// RouteSummary is the abbreviated route attached to enriched list entries.
type RouteSummary struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NearbyAircraft is one list entry: always the live position, plus
// enrichment fields for the nearest few aircraft.
type NearbyAircraft struct {
	domain.Position

	Manufacturer *string       `json:"manufacturer,omitempty"`
	Model        *string       `json:"model,omitempty"`
	Registration *string       `json:"registration,omitempty"`
	Operator     *string       `json:"operator,omitempty"`
	FlightNumber *string       `json:"flightNumber,omitempty"`
	Route        *RouteSummary `json:"route,omitempty"`
}

// MetaView is the merged metadata section of a detail response. The live
// numeric fields are copied in from the current position when one exists.
type MetaView struct {
	Manufacturer *string  `json:"manufacturer"`
	Model        *string  `json:"model"`
	Registration *string  `json:"registration"`
	SerialNumber *string  `json:"serialNumber"`
	Operator     *string  `json:"operator"`
	AgeYears     *float64 `json:"age"`
	Callsign     *string  `json:"callsign"`
	FlightNumber *string  `json:"flightNumber"`

	AltitudeFt        *float64 `json:"altitude,omitempty"`
	SpeedKt           *float64 `json:"speed,omitempty"`
	HeadingDeg        *float64 `json:"heading,omitempty"`
	VerticalRateFtMin *float64 `json:"verticalRate,omitempty"`
	OnGround          *bool    `json:"onGround,omitempty"`
}

// RouteView exists only when both departure and arrival airports resolved.
type RouteView struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	FromName      *string `json:"fromName"`
	ToName        *string `json:"toName"`
	DepartureTime *string `json:"departureTime"`
	ArrivalTime   *string `json:"arrivalTime"`
}

// AircraftDetail is the full enrichment result for one airframe. Any
// section may be nil; partial data is first-class, not an error.
type AircraftDetail struct {
	ICAO24    string                     `json:"icao24"`
	Meta      *MetaView                  `json:"meta"`
	Route     *RouteView                 `json:"route"`
	Position  *domain.LivePosition       `json:"position"`
	RawData   map[string]json.RawMessage `json:"rawData"`
	Timestamp time.Time                  `json:"timestamp"`
}

// TrackerService defines the enrichment pipeline use-cases.
type TrackerService interface {
	// GetNearby returns distance-sorted aircraft inside the radius, with
	// the nearest few enriched.
	GetNearby(ctx context.Context, in NearbyInput) ([]NearbyAircraft, error)
	// GetDetails assembles the full detail record for one aircraft,
	// tolerating any individual sub-fetch failing.
	GetDetails(ctx context.Context, icao24 string) (*AircraftDetail, error)
	// DisabledSources lists metadata sources degraded for this session
	// after an authentication failure.
	DisabledSources() []string
}
