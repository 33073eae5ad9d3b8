package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/airoverhead/flight-tracker/internal/api/metrics"
	"github.com/airoverhead/flight-tracker/internal/cache"
	"github.com/airoverhead/flight-tracker/internal/core/domain"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

// enrichmentLimit bounds how many of the nearest aircraft get full metadata
// and flight lookups per nearby query, to respect third-party rate limits.
const enrichmentLimit = 5

// lookup caches a fetch outcome including "confirmed absent", so unavailable
// aircraft don't trigger repeated upstream calls.
type lookup[T any] struct {
	Value T
	Found bool
}

// TrackerService is the enrichment pipeline: geographic queries against the
// positional source, bounded enrichment through the metadata chain, and full
// detail assembly with graceful degradation on every sub-fetch.
type TrackerService struct {
	positions ports.PositionSource
	chain     *MetadataChain
	flights   ports.FlightSource
	airports  ports.AirportSource

	statesCache  *cache.Store[[]domain.Position]
	flightCache  *cache.Store[lookup[domain.FlightDetail]]
	airportCache *cache.Store[lookup[domain.Airport]]

	log zerolog.Logger
}

func NewTrackerService(
	positions ports.PositionSource,
	chain *MetadataChain,
	flights ports.FlightSource,
	airports ports.AirportSource,
	ttl time.Duration,
	log zerolog.Logger,
) *TrackerService {
	return &TrackerService{
		positions:    positions,
		chain:        chain,
		flights:      flights,
		airports:     airports,
		statesCache:  cache.New[[]domain.Position](ttl),
		flightCache:  cache.New[lookup[domain.FlightDetail]](ttl),
		airportCache: cache.New[lookup[domain.Airport]](ttl),
		log:          log,
	}
}

// Caches exposes the internal stores for metrics registration.
func (s *TrackerService) Caches() map[string]interface {
	Hits() int64
	Misses() int64
} {
	return map[string]interface {
		Hits() int64
		Misses() int64
	}{
		"states":  s.statesCache,
		"flight":  s.flightCache,
		"airport": s.airportCache,
	}
}

// DisabledSources implements ports.TrackerService.
func (s *TrackerService) DisabledSources() []string {
	return s.chain.Disabled()
}

// GetNearby returns all aircraft within the radius sorted nearest-first,
// enriching only the closest few concurrently. Enrichment failures of
// individual aircraft are logged and leave that entry position-only.
func (s *TrackerService) GetNearby(ctx context.Context, in ports.NearbyInput) ([]ports.NearbyAircraft, error) {
	if err := domain.ValidateQuery(in.Lat, in.Lon, in.RadiusKm); err != nil {
		return nil, err
	}

	timer := time.Now()
	defer func() {
		metrics.EnrichmentDuration.WithLabelValues("nearby").Observe(time.Since(timer).Seconds())
	}()

	box := domain.NewBoundingBox(in.Lat, in.Lon, in.RadiusKm)
	raw, err := s.statesCache.GetOrFetch(ctx, statesKey(in), func(ctx context.Context) ([]domain.Position, error) {
		states, err := s.positions.FetchStates(ctx, box)
		if err != nil {
			metrics.UpstreamRequestsTotal.WithLabelValues("opensky", "error").Inc()
			return nil, err
		}
		metrics.UpstreamRequestsTotal.WithLabelValues("opensky", "ok").Inc()
		return states, nil
	})
	if err != nil {
		return nil, err
	}

	filtered := domain.FilterByRadius(in.Lat, in.Lon, in.RadiusKm, raw)
	out := make([]ports.NearbyAircraft, len(filtered))
	for i, p := range filtered {
		out[i] = ports.NearbyAircraft{Position: p}
	}

	limit := min(enrichmentLimit, len(out))
	g, gctx := errgroup.WithContext(ctx)
	for i := range out[:limit] {
		i := i
		g.Go(func() error {
			s.enrichEntry(gctx, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

// enrichEntry attaches metadata and flight facts to one list entry. All
// failures are swallowed: a position-only entry beats no entry.
func (s *TrackerService) enrichEntry(ctx context.Context, entry *ports.NearbyAircraft) {
	if meta, found, err := s.chain.Lookup(ctx, entry.ICAO24); err != nil {
		s.log.Warn().Err(err).Str("icao24", entry.ICAO24).Msg("list enrichment: metadata lookup failed")
	} else if found {
		entry.Manufacturer = meta.Manufacturer
		entry.Model = meta.Model
		entry.Registration = meta.Registration
		entry.Operator = meta.Operator
	}

	flight, found := s.lookupFlight(ctx, entry.ICAO24)
	if !found {
		return
	}
	entry.FlightNumber = flight.FlightNumber
	if flight.DepartureICAO != nil && flight.ArrivalICAO != nil {
		entry.Route = &ports.RouteSummary{From: *flight.DepartureICAO, To: *flight.ArrivalICAO}
	}
}

// GetDetails assembles the full record for one aircraft: metadata chain and
// flight detail in parallel, then airport names when both route ends are
// known. A caller deadline aborts outstanding fetches and whatever was
// assembled so far is returned; absent sections render as null.
func (s *TrackerService) GetDetails(ctx context.Context, icao24 string) (*ports.AircraftDetail, error) {
	if icao24 == "" {
		return nil, domain.ErrMissingIdentifier
	}

	timer := time.Now()
	defer func() {
		metrics.EnrichmentDuration.WithLabelValues("details").Observe(time.Since(timer).Seconds())
	}()

	var (
		meta      domain.MetadataRecord
		metaFound bool
		flight    domain.FlightDetail
		hasFlight bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, metaFound, err = s.chain.Lookup(gctx, icao24)
		if err != nil {
			s.log.Warn().Err(err).Str("icao24", icao24).Msg("detail assembly: metadata unavailable")
		}
		return nil
	})
	g.Go(func() error {
		flight, hasFlight = s.lookupFlight(gctx, icao24)
		return nil
	})
	_ = g.Wait()

	detail := &ports.AircraftDetail{
		ICAO24:    icao24,
		RawData:   map[string]json.RawMessage{},
		Timestamp: time.Now().UTC(),
	}
	if meta.Raw != nil {
		detail.RawData["aircraft"] = meta.Raw
	}
	if flight.Raw != nil {
		detail.RawData["flight"] = flight.Raw
	}

	if hasFlight {
		detail.Position = flight.Position
		detail.Route = s.resolveRoute(ctx, flight)
	}

	if metaFound || hasFlight {
		mv := &ports.MetaView{
			Manufacturer: meta.Manufacturer,
			Model:        meta.Model,
			Registration: meta.Registration,
			SerialNumber: meta.SerialNumber,
			Operator:     meta.Operator,
			AgeYears:     meta.AgeYears,
		}
		if hasFlight {
			mv.Callsign = flight.Callsign
			mv.FlightNumber = flight.FlightNumber
		}
		if detail.Position != nil {
			mv.AltitudeFt = detail.Position.AltitudeFt
			mv.SpeedKt = detail.Position.SpeedKt
			mv.HeadingDeg = detail.Position.HeadingDeg
			mv.VerticalRateFtMin = detail.Position.VerticalRateFtMin
			onGround := domain.InferOnGround(detail.Position.AltitudeFt)
			mv.OnGround = &onGround
		}
		detail.Meta = mv
	}

	return detail, nil
}

// resolveRoute builds the route section when both airport codes are present,
// fetching both airport names concurrently. A failed airport lookup leaves
// its name null; the route itself still exists.
func (s *TrackerService) resolveRoute(ctx context.Context, flight domain.FlightDetail) *ports.RouteView {
	if flight.DepartureICAO == nil || flight.ArrivalICAO == nil {
		return nil
	}

	route := &ports.RouteView{
		From:          *flight.DepartureICAO,
		To:            *flight.ArrivalICAO,
		DepartureTime: flight.DepartureTime,
		ArrivalTime:   flight.ArrivalTime,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if ap, ok := s.lookupAirport(gctx, route.From); ok {
			route.FromName = ap.FullName
		}
		return nil
	})
	g.Go(func() error {
		if ap, ok := s.lookupAirport(gctx, route.To); ok {
			route.ToName = ap.FullName
		}
		return nil
	})
	_ = g.Wait()

	return route
}

// lookupFlight consults the flight cache; errors degrade to "absent" and
// are not cached, so the next request retries.
func (s *TrackerService) lookupFlight(ctx context.Context, icao24 string) (domain.FlightDetail, bool) {
	result, err := s.flightCache.GetOrFetch(ctx, "flight:"+icao24, func(ctx context.Context) (lookup[domain.FlightDetail], error) {
		detail, found, err := s.flights.FetchFlight(ctx, icao24)
		if err != nil {
			metrics.UpstreamRequestsTotal.WithLabelValues("aerodatabox", "error").Inc()
			return lookup[domain.FlightDetail]{}, err
		}
		outcome := "absent"
		if found {
			outcome = "ok"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues("aerodatabox", outcome).Inc()
		return lookup[domain.FlightDetail]{Value: detail, Found: found}, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("icao24", icao24).Msg("flight lookup failed")
		return domain.FlightDetail{}, false
	}
	return result.Value, result.Found
}

func (s *TrackerService) lookupAirport(ctx context.Context, code string) (domain.Airport, bool) {
	result, err := s.airportCache.GetOrFetch(ctx, "airport:"+code, func(ctx context.Context) (lookup[domain.Airport], error) {
		airport, found, err := s.airports.FetchAirport(ctx, code)
		if err != nil {
			return lookup[domain.Airport]{}, err
		}
		return lookup[domain.Airport]{Value: airport, Found: found}, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("airport", code).Msg("airport lookup failed")
		return domain.Airport{}, false
	}
	return result.Value, result.Found
}

// statesKey builds the position-query cache key. This cache is keyed by the
// query parameters; per-aircraft enrichment is keyed strictly by identifier
// so stale enrichment can never leak between queries.
func statesKey(in ports.NearbyInput) string {
	return "states:" + formatCoord(in.Lat) + ":" + formatCoord(in.Lon) + ":" + formatCoord(in.RadiusKm)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
