package ports

import "context"

// NotifyInput is the display-ready view of one aircraft, as assembled by the
// enrichment pipeline or posted by the front-end. String fields may be
// empty; numeric fields may be nil and can fall back to PositionText, a
// combined "<alt> ft | <heading>°" string some callers send instead.
type NotifyInput struct {
	ICAO24          string
	Callsign        string
	Registration    string
	Operator        string
	RegisteredOwner string
	Country         string
	Manufacturer    string
	Model           string
	AircraftType    string
	AltitudeFt      *float64
	SpeedKt         *float64
	HeadingDeg      *float64
	PositionText    string
}

// NotifierStatus reports the display integration state.
type NotifierStatus struct {
	Enabled       bool     `json:"vestaboard_enabled"`
	Connected     bool     `json:"vestaboard_connected"`
	TrackedCount  int      `json:"tracked_aircraft_count"`
	TrackedSample []string `json:"tracked_aircraft"`
}

// NotifierService gates and delivers new-aircraft notifications to the
// external display: at most one notification per identifier per process
// lifetime, until the tracked set is reset wholesale.
type NotifierService interface {
	// Notify sends a notification unless the aircraft was already
	// announced. It reports whether a message was actually sent.
	Notify(ctx context.Context, in NotifyInput) (bool, error)
	// SendTest pushes a timestamped test message to the display.
	SendTest(ctx context.Context) error
	Status(ctx context.Context) NotifierStatus
	TrackedCount() int
}
