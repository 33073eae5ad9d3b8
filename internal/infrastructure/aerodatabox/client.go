// Package aerodatabox implements the primary structured metadata source:
// the AeroDataBox API behind a RapidAPI key, covering airframe metadata,
// current-flight details, and airport lookups.
package aerodatabox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

const (
	defaultBaseURL = "https://aerodatabox.p.rapidapi.com"
	defaultTimeout = 30 * time.Second

	userAgent = "flight-tracker-proxy/1.0"
)

// Config captures the settings for the AeroDataBox client.
type Config struct {
	APIKey  string
	APIHost string
	BaseURL string
	Timeout time.Duration
}

// Client calls AeroDataBox endpoints. An unconfigured client (no API key)
// reports found=false for every lookup so the fallback chain can take over.
type Client struct {
	apiKey  string
	apiHost string
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		apiKey:  cfg.APIKey,
		apiHost: cfg.APIHost,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

// Name identifies this source in logs and health output.
func (c *Client) Name() string { return "aerodatabox" }

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" && c.apiHost != "" }

// aircraftResponse decodes the airframe metadata endpoint. AeroDataBox has
// shipped both "age" and "ageYears" over time; accept either.
type aircraftResponse struct {
	Manufacturer *string  `json:"manufacturer"`
	Model        *string  `json:"model"`
	TypeName     *string  `json:"typeName"`
	Registration *string  `json:"registration"`
	SerialNumber *string  `json:"serialNumber"`
	Operator     *string  `json:"operator"`
	Age          *float64 `json:"age"`
	AgeYears     *float64 `json:"ageYears"`
}

// FetchMetadata implements ports.MetadataSource against the v2 aircraft
// endpoint.
func (c *Client) FetchMetadata(ctx context.Context, icao24 string) (domain.MetadataRecord, bool, error) {
	if !c.Configured() {
		return domain.MetadataRecord{}, false, nil
	}

	raw, found, err := c.get(ctx, "/v2/aircraft/"+icao24)
	if err != nil || !found {
		return domain.MetadataRecord{}, false, err
	}

	var decoded aircraftResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.MetadataRecord{}, false, fmt.Errorf("aerodatabox aircraft decode: %w", err)
	}

	rec := domain.MetadataRecord{
		Manufacturer: decoded.Manufacturer,
		Model:        decoded.Model,
		Registration: decoded.Registration,
		SerialNumber: decoded.SerialNumber,
		Operator:     decoded.Operator,
		AgeYears:     decoded.Age,
		Raw:          raw,
	}
	if rec.Model == nil {
		rec.Model = decoded.TypeName
	}
	if rec.AgeYears == nil {
		rec.AgeYears = decoded.AgeYears
	}
	return rec, !rec.IsEmpty(), nil
}

type legResponse struct {
	Airport *struct {
		ICAO *string `json:"icao"`
	} `json:"airport"`
	ScheduledTime *struct {
		UTC *string `json:"utc"`
	} `json:"scheduledTime"`
}

type positionResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *struct {
		Feet *float64 `json:"feet"`
	} `json:"altitude"`
	GroundSpeed *struct {
		Knots *float64 `json:"knots"`
	} `json:"groundSpeed"`
	Heading      *float64 `json:"heading"`
	VerticalRate *float64 `json:"verticalRate"`
	ReportedAt   *string  `json:"reportedAt"`
}

type flightResponse struct {
	Callsign  *string           `json:"callsign"`
	Number    *string           `json:"number"`
	Departure *legResponse      `json:"departure"`
	Arrival   *legResponse      `json:"arrival"`
	Position  *positionResponse `json:"position"`
}

// FetchFlight implements ports.FlightSource against the flights-by-aircraft
// position endpoint.
func (c *Client) FetchFlight(ctx context.Context, icao24 string) (domain.FlightDetail, bool, error) {
	if !c.Configured() {
		return domain.FlightDetail{}, false, nil
	}

	raw, found, err := c.get(ctx, "/v2/flights/aircraft/"+icao24+"/position")
	if err != nil || !found {
		return domain.FlightDetail{}, false, err
	}

	var decoded flightResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.FlightDetail{}, false, fmt.Errorf("aerodatabox flight decode: %w", err)
	}

	detail := domain.FlightDetail{
		Callsign:     decoded.Callsign,
		FlightNumber: decoded.Number,
		Raw:          raw,
	}
	if leg := decoded.Departure; leg != nil {
		if leg.Airport != nil {
			detail.DepartureICAO = leg.Airport.ICAO
		}
		if leg.ScheduledTime != nil {
			detail.DepartureTime = leg.ScheduledTime.UTC
		}
	}
	if leg := decoded.Arrival; leg != nil {
		if leg.Airport != nil {
			detail.ArrivalICAO = leg.Airport.ICAO
		}
		if leg.ScheduledTime != nil {
			detail.ArrivalTime = leg.ScheduledTime.UTC
		}
	}
	if pos := decoded.Position; pos != nil {
		live := &domain.LivePosition{
			Latitude:          pos.Latitude,
			Longitude:         pos.Longitude,
			HeadingDeg:        pos.Heading,
			VerticalRateFtMin: pos.VerticalRate,
			ReportedAt:        pos.ReportedAt,
		}
		if pos.Altitude != nil {
			live.AltitudeFt = pos.Altitude.Feet
		}
		if pos.GroundSpeed != nil {
			live.SpeedKt = pos.GroundSpeed.Knots
		}
		detail.Position = live
	}
	return detail, true, nil
}

type airportResponse struct {
	FullName *string `json:"fullName"`
}

// FetchAirport implements ports.AirportSource against the v1 airport
// endpoint.
func (c *Client) FetchAirport(ctx context.Context, icaoCode string) (domain.Airport, bool, error) {
	if !c.Configured() {
		return domain.Airport{}, false, nil
	}

	raw, found, err := c.get(ctx, "/v1/airports/icao/"+icaoCode)
	if err != nil || !found {
		return domain.Airport{}, false, err
	}

	var decoded airportResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Airport{}, false, fmt.Errorf("aerodatabox airport decode: %w", err)
	}

	return domain.Airport{ICAO: icaoCode, FullName: decoded.FullName, Raw: raw}, true, nil
}

// get performs an authenticated GET and maps status codes onto the error
// taxonomy: 404 is an absent result, 401/403 an auth failure, 429 a rate
// limit, anything else non-2xx an upstream failure.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.apiHost)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("aerodatabox %s: %w: %w", path, domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("aerodatabox %s: %w", path, domain.ErrAuthFailure)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, fmt.Errorf("aerodatabox %s: %w", path, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("aerodatabox %s: %w: status %d", path, domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("aerodatabox %s: %w: %w", path, domain.ErrUpstreamUnavailable, err)
	}
	return body, true, nil
}
