// Package poller runs the automated detection sweep: the geo query and
// enrichment pipeline invoked on a fixed interval, pushing display
// notifications for aircraft entering the tracked area, with no browser or
// front-end involved.
package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/api/metrics"
	"github.com/airoverhead/flight-tracker/internal/core/domain"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

const (
	defaultInterval   = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Second
)

// Config captures the sweep parameters.
type Config struct {
	Lat        float64
	Lon        float64
	RadiusKm   float64
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Stats are running counters for the health endpoint.
type Stats struct {
	Checks        int64 `json:"checks_performed"`
	AircraftSeen  int64 `json:"aircraft_detected"`
	Errors        int64 `json:"errors"`
	LastSeenCount int64 `json:"last_aircraft_count"`
}

// Poller repeatedly queries the tracker for a fixed point and notifies new
// aircraft. Upstream failures are retried a bounded number of times per
// sweep and never crash the process.
type Poller struct {
	tracker  ports.TrackerService
	notifier ports.NotifierService
	cfg      Config
	log      zerolog.Logger

	checks   atomic.Int64
	seen     atomic.Int64
	errs     atomic.Int64
	lastSeen atomic.Int64
}

func New(tracker ports.TrackerService, notifier ports.NotifierService, cfg Config, log zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Poller{tracker: tracker, notifier: notifier, cfg: cfg, log: log}
}

// Run sweeps until ctx is cancelled. It blocks; start it in its own
// goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().
		Float64("lat", p.cfg.Lat).
		Float64("lon", p.cfg.Lon).
		Float64("radius_km", p.cfg.RadiusKm).
		Dur("interval", p.cfg.Interval).
		Msg("automatic detection started")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("automatic detection stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// Stats returns a snapshot of the running counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Checks:        p.checks.Load(),
		AircraftSeen:  p.seen.Load(),
		Errors:        p.errs.Load(),
		LastSeenCount: p.lastSeen.Load(),
	}
}

// sweep performs one detection pass with bounded fixed-backoff retries.
func (p *Poller) sweep(ctx context.Context) {
	p.checks.Add(1)

	var aircraft []ports.NearbyAircraft
	var err error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		aircraft, err = p.tracker.GetNearby(ctx, ports.NearbyInput{
			Lat:      p.cfg.Lat,
			Lon:      p.cfg.Lon,
			RadiusKm: p.cfg.RadiusKm,
		})
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		p.log.Warn().Err(err).Int("attempt", attempt).Int("max", p.cfg.MaxRetries).
			Msg("detection sweep failed")
		if attempt < p.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.RetryDelay):
			}
		}
	}
	if err != nil {
		p.errs.Add(1)
		metrics.PollerChecksTotal.WithLabelValues("error").Inc()
		return
	}

	p.lastSeen.Store(int64(len(aircraft)))
	if len(aircraft) == 0 {
		metrics.PollerChecksTotal.WithLabelValues("empty").Inc()
		return
	}
	p.seen.Add(int64(len(aircraft)))
	metrics.PollerChecksTotal.WithLabelValues("ok").Inc()
	p.log.Debug().Int("count", len(aircraft)).Msg("aircraft in tracked area")

	for _, a := range aircraft {
		sent, err := p.notifier.Notify(ctx, toNotifyInput(a))
		if err != nil {
			if !errors.Is(err, domain.ErrDisplayUnavailable) {
				p.log.Warn().Err(err).Str("icao24", a.ICAO24).Msg("notification failed")
			}
			continue
		}
		if sent {
			p.log.Info().Str("icao24", a.ICAO24).Float64("distance_km", a.DistanceKm).
				Msg("new aircraft announced")
		}
	}
}

func toNotifyInput(a ports.NearbyAircraft) ports.NotifyInput {
	in := ports.NotifyInput{
		ICAO24:     a.ICAO24,
		Country:    a.Country,
		AltitudeFt: a.AltitudeFt,
		SpeedKt:    a.SpeedKt,
		HeadingDeg: a.HeadingDeg,
	}
	if a.Callsign != nil {
		in.Callsign = *a.Callsign
	}
	if a.Registration != nil {
		in.Registration = *a.Registration
	}
	if a.Operator != nil {
		in.Operator = *a.Operator
	}
	if a.Manufacturer != nil {
		in.Manufacturer = *a.Manufacturer
	}
	if a.Model != nil {
		in.Model = *a.Model
	}
	return in
}
