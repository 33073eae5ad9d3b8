package ports

import (
	"context"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

// PositionSource returns raw state vectors for a bounding box. Implemented
// by the OpenSky client.
type PositionSource interface {
	FetchStates(ctx context.Context, box domain.BoundingBox) ([]domain.Position, error)
}

// MetadataSource fetches registration metadata for one airframe. The bool
// result distinguishes "absent" (a valid outcome) from an actual error, so
// callers can treat a 404 and an empty parse the same way while still
// logging real failures.
type MetadataSource interface {
	// Name identifies the source in logs, metrics, and health output.
	Name() string
	FetchMetadata(ctx context.Context, icao24 string) (domain.MetadataRecord, bool, error)
}

// FlightSource fetches the current flight of an airframe. Primary API only;
// there is no fallback chain for flight details.
type FlightSource interface {
	FetchFlight(ctx context.Context, icao24 string) (domain.FlightDetail, bool, error)
}

// AirportSource resolves an airport by its ICAO code.
type AirportSource interface {
	FetchAirport(ctx context.Context, icaoCode string) (domain.Airport, bool, error)
}

// DisplayClient is the external low-resolution display (a 6x22 character
// grid reachable over the local network).
type DisplayClient interface {
	SendMessage(ctx context.Context, text string) error
	ReadBoard(ctx context.Context) (string, error)
	TestConnection(ctx context.Context) bool
}

// SnapshotStore is an optional external key-value layer under the metadata
// cache (Redis in production). It is a best-effort optimization: Load
// reports whether the key was present and decoded, Store never fails the
// caller.
type SnapshotStore interface {
	Load(ctx context.Context, key string, v any) bool
	Store(ctx context.Context, key string, v any)
}
