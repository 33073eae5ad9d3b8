package domain

import "encoding/json"

// Position is a single point-in-time state vector for one aircraft, already
// converted to display units (feet, knots, ft/min). Nullable numerics are
// pointers: upstream sources routinely omit them.
type Position struct {
	ICAO24            string   `json:"icao24"`
	Callsign          *string  `json:"callsign"`
	Country           string   `json:"country"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	AltitudeFt        *float64 `json:"altitude"`
	SpeedKt           *float64 `json:"speed"`
	HeadingDeg        *float64 `json:"heading"`
	VerticalRateFtMin *float64 `json:"verticalRate"`
	OnGround          bool     `json:"onGround"`
	DistanceKm        float64  `json:"distance"`
}

// MetadataRecord holds registration-database facts about one airframe.
// Every field is independently nullable; a zero-value record means "no data",
// which is itself a valid, cacheable lookup outcome.
type MetadataRecord struct {
	Manufacturer *string  `json:"manufacturer"`
	Model        *string  `json:"model"`
	Registration *string  `json:"registration"`
	Operator     *string  `json:"operator"`
	SerialNumber *string  `json:"serialNumber"`
	AgeYears     *float64 `json:"age"`

	// Raw is the undecoded body of the source that produced this record,
	// carried along for the rawData debug section of detail responses.
	Raw json.RawMessage `json:"-"`
}

// IsEmpty reports whether no field carries data.
func (m MetadataRecord) IsEmpty() bool {
	return m.Manufacturer == nil &&
		m.Model == nil &&
		m.Registration == nil &&
		m.Operator == nil &&
		m.SerialNumber == nil &&
		m.AgeYears == nil
}

// IsComplete reports whether every field carries data, which lets the
// source chain stop early.
func (m MetadataRecord) IsComplete() bool {
	return m.Manufacturer != nil &&
		m.Model != nil &&
		m.Registration != nil &&
		m.Operator != nil &&
		m.SerialNumber != nil &&
		m.AgeYears != nil
}

// Merge fills the nil fields of m from lower and returns the result.
// m always wins: once a field is set by a higher-precedence source, a
// lower-precedence source must never overwrite it.
func (m MetadataRecord) Merge(lower MetadataRecord) MetadataRecord {
	if m.Manufacturer == nil {
		m.Manufacturer = lower.Manufacturer
	}
	if m.Model == nil {
		m.Model = lower.Model
	}
	if m.Registration == nil {
		m.Registration = lower.Registration
	}
	if m.Operator == nil {
		m.Operator = lower.Operator
	}
	if m.SerialNumber == nil {
		m.SerialNumber = lower.SerialNumber
	}
	if m.AgeYears == nil {
		m.AgeYears = lower.AgeYears
	}
	if m.Raw == nil {
		m.Raw = lower.Raw
	}
	return m
}

// LivePosition is the current in-flight position block from a flight-detail
// lookup.
type LivePosition struct {
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AltitudeFt        *float64 `json:"altitude"`
	SpeedKt           *float64 `json:"speed"`
	HeadingDeg        *float64 `json:"heading"`
	VerticalRateFtMin *float64 `json:"verticalRate"`
	ReportedAt        *string  `json:"timestamp"`
}

// FlightDetail is the current flight of an airframe as reported by the
// primary flight API: identity, scheduled route legs, and live position.
type FlightDetail struct {
	Callsign      *string
	FlightNumber  *string
	DepartureICAO *string
	ArrivalICAO   *string
	DepartureTime *string
	ArrivalTime   *string
	Position      *LivePosition

	Raw json.RawMessage
}

// Airport is a resolved airport lookup.
type Airport struct {
	ICAO     string
	FullName *string

	Raw json.RawMessage
}

// onGroundAltitudeFt is the ceiling below which an aircraft is assumed to be
// on the ground when the upstream source reports no explicit flag.
const onGroundAltitudeFt = 100

// InferOnGround derives the on-ground flag from altitude when the source did
// not report one. An explicit flag, even false at low altitude, is trusted.
func InferOnGround(altitudeFt *float64) bool {
	return altitudeFt == nil || *altitudeFt <= onGroundAltitudeFt
}
