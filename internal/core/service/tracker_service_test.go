package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub sources
// ---------------------------------------------------------------------------

type stubPositions struct {
	states []domain.Position
	err    error
	calls  int
}

func (s *stubPositions) FetchStates(_ context.Context, _ domain.BoundingBox) ([]domain.Position, error) {
	s.calls++
	return s.states, s.err
}

// countingSource records which airframes were enriched.
type countingSource struct {
	mu      sync.Mutex
	lookups []string
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) FetchMetadata(_ context.Context, icao24 string) (domain.MetadataRecord, bool, error) {
	s.mu.Lock()
	s.lookups = append(s.lookups, icao24)
	s.mu.Unlock()
	return domain.MetadataRecord{Registration: strPtr("REG-" + icao24)}, true, nil
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lookups)
}

type stubFlights struct {
	detail domain.FlightDetail
	found  bool
	err    error
	calls  int
}

func (s *stubFlights) FetchFlight(_ context.Context, _ string) (domain.FlightDetail, bool, error) {
	s.calls++
	return s.detail, s.found, s.err
}

type stubAirports struct {
	names map[string]string
	err   error
}

func (s *stubAirports) FetchAirport(_ context.Context, code string) (domain.Airport, bool, error) {
	if s.err != nil {
		return domain.Airport{}, false, s.err
	}
	name, ok := s.names[code]
	if !ok {
		return domain.Airport{}, false, nil
	}
	return domain.Airport{ICAO: code, FullName: &name}, true, nil
}

func newTestTracker(positions ports.PositionSource, meta ports.MetadataSource, flights ports.FlightSource, airports ports.AirportSource) *TrackerService {
	chain := newTestChain(nil, meta)
	return NewTrackerService(positions, chain, flights, airports, time.Minute, zerolog.Nop())
}

// positionsAround fabricates n aircraft at increasing distance from the
// center, nearest last so sorting is actually exercised.
func positionsAround(lat, lon float64, n int) []domain.Position {
	out := make([]domain.Position, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, domain.Position{
			ICAO24:    string(rune('a'+i-1)) + "00000",
			Latitude:  lat + float64(i)*0.005,
			Longitude: lon,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// GetNearby
// ---------------------------------------------------------------------------

func TestGetNearby_RejectsInvalidQuery(t *testing.T) {
	svc := newTestTracker(&stubPositions{}, &countingSource{}, &stubFlights{}, &stubAirports{})

	_, err := svc.GetNearby(context.Background(), ports.NearbyInput{Lat: 91, Lon: 0, RadiusKm: 5})
	if !errors.Is(err, domain.ErrInvalidLatitude) {
		t.Fatalf("expected ErrInvalidLatitude, got %v", err)
	}
}

func TestGetNearby_SortsAndEnrichesNearestOnly(t *testing.T) {
	meta := &countingSource{}
	positions := &stubPositions{states: positionsAround(51.5995, -0.5545, 7)}
	flights := &stubFlights{}
	svc := newTestTracker(positions, meta, flights, &stubAirports{})

	got, err := svc.GetNearby(context.Background(), ports.NearbyInput{Lat: 51.5995, Lon: -0.5545, RadiusKm: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("expected all 7 aircraft, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Fatalf("not sorted nearest-first at index %d: %v", i, got)
		}
	}
	if meta.count() != 5 {
		t.Fatalf("expected exactly 5 enrichment lookups, got %d", meta.count())
	}
	for i, a := range got {
		enriched := a.Registration != nil
		if i < 5 && !enriched {
			t.Fatalf("aircraft %d should be enriched", i)
		}
		if i >= 5 && enriched {
			t.Fatalf("aircraft %d beyond the limit should stay position-only", i)
		}
	}
}

func TestGetNearby_StatesCachedPerQuery(t *testing.T) {
	positions := &stubPositions{states: positionsAround(51.5995, -0.5545, 2)}
	svc := newTestTracker(positions, &countingSource{}, &stubFlights{}, &stubAirports{})
	in := ports.NearbyInput{Lat: 51.5995, Lon: -0.5545, RadiusKm: 10}

	for i := 0; i < 3; i++ {
		if _, err := svc.GetNearby(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if positions.calls != 1 {
		t.Fatalf("expected one upstream states call, got %d", positions.calls)
	}

	// A different radius is a different cache key.
	in.RadiusKm = 20
	if _, err := svc.GetNearby(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if positions.calls != 2 {
		t.Fatalf("expected a fresh fetch for new parameters, got %d calls", positions.calls)
	}
}

func TestGetNearby_UpstreamErrorPropagates(t *testing.T) {
	positions := &stubPositions{err: domain.ErrRateLimited}
	svc := newTestTracker(positions, &countingSource{}, &stubFlights{}, &stubAirports{})

	_, err := svc.GetNearby(context.Background(), ports.NearbyInput{Lat: 51.5995, Lon: -0.5545, RadiusKm: 5})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
}

func TestGetNearby_FlightFailureLeavesPositionOnly(t *testing.T) {
	positions := &stubPositions{states: positionsAround(51.5995, -0.5545, 1)}
	flights := &stubFlights{err: errors.New("flight api down")}
	svc := newTestTracker(positions, &countingSource{}, flights, &stubAirports{})

	got, err := svc.GetNearby(context.Background(), ports.NearbyInput{Lat: 51.5995, Lon: -0.5545, RadiusKm: 10})
	if err != nil {
		t.Fatalf("a broken flight source must not fail the listing: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 aircraft, got %d", len(got))
	}
	if got[0].Registration == nil {
		t.Fatal("metadata enrichment should survive a flight failure")
	}
	if got[0].FlightNumber != nil || got[0].Route != nil {
		t.Fatal("flight fields should stay empty on failure")
	}
}

func TestGetNearby_EmptyAreaIsNotAnError(t *testing.T) {
	svc := newTestTracker(&stubPositions{}, &countingSource{}, &stubFlights{}, &stubAirports{})

	got, err := svc.GetNearby(context.Background(), ports.NearbyInput{Lat: 51.5995, Lon: -0.5545, RadiusKm: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// GetDetails
// ---------------------------------------------------------------------------

func TestGetDetails_RequiresIdentifier(t *testing.T) {
	svc := newTestTracker(&stubPositions{}, &countingSource{}, &stubFlights{}, &stubAirports{})

	_, err := svc.GetDetails(context.Background(), "")
	if !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Fatalf("expected ErrMissingIdentifier, got %v", err)
	}
}

func TestGetDetails_AssemblesAllSections(t *testing.T) {
	altitude := 22750.0
	flights := &stubFlights{
		detail: domain.FlightDetail{
			Callsign:      strPtr("BAW123"),
			FlightNumber:  strPtr("BA 123"),
			DepartureICAO: strPtr("EGLL"),
			ArrivalICAO:   strPtr("KJFK"),
			DepartureTime: strPtr("2026-08-29 10:00Z"),
			Position:      &domain.LivePosition{AltitudeFt: &altitude},
			Raw:           json.RawMessage(`{"callsign":"BAW123"}`),
		},
		found: true,
	}
	airports := &stubAirports{names: map[string]string{
		"EGLL": "London Heathrow",
		"KJFK": "New York JFK",
	}}
	svc := newTestTracker(&stubPositions{}, &countingSource{}, flights, airports)

	detail, err := svc.GetDetails(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.Meta == nil {
		t.Fatal("expected meta section")
	}
	if detail.Meta.Registration == nil || *detail.Meta.Registration != "REG-abc123" {
		t.Fatalf("expected merged registration, got %v", detail.Meta.Registration)
	}
	if detail.Meta.Callsign == nil || *detail.Meta.Callsign != "BAW123" {
		t.Fatalf("expected callsign from flight, got %v", detail.Meta.Callsign)
	}
	if detail.Meta.AltitudeFt == nil || *detail.Meta.AltitudeFt != altitude {
		t.Fatalf("expected live altitude copied into meta, got %v", detail.Meta.AltitudeFt)
	}
	if detail.Meta.OnGround == nil || *detail.Meta.OnGround {
		t.Fatal("aircraft at 22750 ft should not be on the ground")
	}

	if detail.Route == nil {
		t.Fatal("expected route section")
	}
	if detail.Route.From != "EGLL" || detail.Route.To != "KJFK" {
		t.Fatalf("unexpected route: %+v", detail.Route)
	}
	if detail.Route.FromName == nil || *detail.Route.FromName != "London Heathrow" {
		t.Fatalf("expected resolved departure airport, got %v", detail.Route.FromName)
	}

	if detail.Position == nil || *detail.Position.AltitudeFt != altitude {
		t.Fatal("expected live position passed through")
	}
	if _, ok := detail.RawData["flight"]; !ok {
		t.Fatal("expected raw flight payload in rawData")
	}
}

func TestGetDetails_PartialDataIsNotAnError(t *testing.T) {
	// No flight, no airports: metadata alone still yields a detail record.
	svc := newTestTracker(&stubPositions{}, &countingSource{}, &stubFlights{}, &stubAirports{})

	detail, err := svc.GetDetails(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Meta == nil {
		t.Fatal("expected meta from the chain")
	}
	if detail.Route != nil || detail.Position != nil {
		t.Fatal("sections without data must stay nil")
	}
}

func TestGetDetails_AirportFailureKeepsRoute(t *testing.T) {
	flights := &stubFlights{
		detail: domain.FlightDetail{
			DepartureICAO: strPtr("EGLL"),
			ArrivalICAO:   strPtr("KJFK"),
		},
		found: true,
	}
	svc := newTestTracker(&stubPositions{}, &countingSource{}, flights, &stubAirports{err: errors.New("down")})

	detail, err := svc.GetDetails(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Route == nil {
		t.Fatal("route codes were known, section must exist")
	}
	if detail.Route.FromName != nil || detail.Route.ToName != nil {
		t.Fatal("failed airport lookups must leave names nil")
	}
}

func TestGetDetails_FlightCachedByIdentifier(t *testing.T) {
	flights := &stubFlights{found: true, detail: domain.FlightDetail{Callsign: strPtr("BAW123")}}
	svc := newTestTracker(&stubPositions{}, &countingSource{}, flights, &stubAirports{})

	for i := 0; i < 3; i++ {
		if _, err := svc.GetDetails(context.Background(), "abc123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if flights.calls != 1 {
		t.Fatalf("expected one flight fetch across repeat lookups, got %d", flights.calls)
	}
}
