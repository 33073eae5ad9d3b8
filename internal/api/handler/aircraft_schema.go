package handler

import (
	"encoding/json"
	"strconv"
	"strings"
)

// defaultRadiusKm applies when the radius query parameter is omitted.
const defaultRadiusKm = 3

type nearbyRequest struct {
	Lat    *float64 `query:"lat"    validate:"required"`
	Lon    *float64 `query:"lon"    validate:"required"`
	Radius *float64 `query:"radius"`
}

type detailsRequest struct {
	ICAO24 string `query:"icao24"`
}

// notifyAircraft mirrors the loosely-shaped aircraft object posted by the
// front-end: a mix of enriched fields and raw display strings.
type notifyAircraft struct {
	ICAO24          string          `json:"icao24" validate:"required"`
	Callsign        string          `json:"callsign"`
	Registration    string          `json:"registration"`
	Operator        string          `json:"operator"`
	RegisteredOwner string          `json:"registeredOwner"`
	Owner           string          `json:"owner"`
	Country         string          `json:"country"`
	Manufacturer    string          `json:"manufacturer"`
	Model           string          `json:"model"`
	AircraftType    string          `json:"aircraftType"`
	Altitude        *float64        `json:"altitude"`
	Speed           json.RawMessage `json:"speed"`
	Heading         *float64        `json:"heading"`
	Position        string          `json:"position"`
}

type notifyRequest struct {
	Aircraft *notifyAircraft `json:"aircraft" validate:"required"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// parseSpeed accepts the speed field as either a JSON number or a string
// like "400 knots" and returns the numeric part.
func parseSpeed(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
		return &v
	}
	return nil
}
