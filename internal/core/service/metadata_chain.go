package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/api/metrics"
	"github.com/airoverhead/flight-tracker/internal/cache"
	"github.com/airoverhead/flight-tracker/internal/core/domain"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

// MetadataChain resolves airframe metadata through an ordered list of
// sources: primary structured API first, then public registries, then the
// offline registration database. Sources are consulted in priority order and
// lower-priority sources only fill fields the higher ones left empty.
//
// Source-level errors never abort the chain: they are logged, counted, and
// treated as "no data from this source". An auth failure disables the
// offending source for the rest of the session. The merged outcome — even a
// completely empty one — is cached under metadata:<icao24>, so a repeat
// lookup makes zero network calls.
type MetadataChain struct {
	sources  []ports.MetadataSource
	store    *cache.Store[domain.MetadataRecord]
	snapshot ports.SnapshotStore
	log      zerolog.Logger

	mu       sync.Mutex
	disabled map[string]bool
}

// NewMetadataChain builds a chain over sources in priority order. snapshot
// may be nil when no persistent layer is configured.
func NewMetadataChain(sources []ports.MetadataSource, store *cache.Store[domain.MetadataRecord], snapshot ports.SnapshotStore, log zerolog.Logger) *MetadataChain {
	return &MetadataChain{
		sources:  sources,
		store:    store,
		snapshot: snapshot,
		log:      log,
		disabled: make(map[string]bool),
	}
}

// Lookup returns the merged metadata for icao24. found is false when no
// source knew the airframe; that outcome is cached like any other.
func (c *MetadataChain) Lookup(ctx context.Context, icao24 string) (domain.MetadataRecord, bool, error) {
	key := "metadata:" + icao24
	rec, err := c.store.GetOrFetch(ctx, key, func(ctx context.Context) (domain.MetadataRecord, error) {
		if c.snapshot != nil {
			var snap domain.MetadataRecord
			if c.snapshot.Load(ctx, key, &snap) {
				return snap, nil
			}
		}
		merged := c.consult(ctx, icao24)
		if err := ctx.Err(); err != nil {
			// A cancelled walk is not a confirmed-absent outcome.
			return domain.MetadataRecord{}, err
		}
		if c.snapshot != nil && !merged.IsEmpty() {
			c.snapshot.Store(ctx, key, merged)
		}
		return merged, nil
	})
	if err != nil {
		return domain.MetadataRecord{}, false, err
	}
	return rec, !rec.IsEmpty(), nil
}

// consult walks the source list, merging field-wise with
// first-non-nil-wins in priority order, stopping early once every field is
// populated.
func (c *MetadataChain) consult(ctx context.Context, icao24 string) domain.MetadataRecord {
	var merged domain.MetadataRecord
	for _, src := range c.sources {
		if c.isDisabled(src.Name()) {
			continue
		}

		rec, found, err := src.FetchMetadata(ctx, icao24)
		switch {
		case err != nil:
			metrics.UpstreamRequestsTotal.WithLabelValues(src.Name(), "error").Inc()
			if errors.Is(err, domain.ErrAuthFailure) {
				c.disable(src.Name())
				c.log.Error().Err(err).Str("source", src.Name()).
					Msg("credentials rejected, source disabled for this session")
			} else {
				c.log.Warn().Err(err).Str("source", src.Name()).Str("icao24", icao24).
					Msg("metadata source failed, trying next")
			}
			continue
		case !found:
			metrics.UpstreamRequestsTotal.WithLabelValues(src.Name(), "absent").Inc()
			continue
		}

		metrics.UpstreamRequestsTotal.WithLabelValues(src.Name(), "ok").Inc()
		merged = merged.Merge(rec)
		if merged.IsComplete() {
			break
		}
	}

	if merged.IsEmpty() {
		c.log.Debug().Str("icao24", icao24).Msg("no metadata available from any source")
	}
	return merged
}

// Disabled lists sources degraded for this session after an auth failure.
func (c *MetadataChain) Disabled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.disabled))
	for name := range c.disabled {
		out = append(out, name)
	}
	return out
}

func (c *MetadataChain) isDisabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[name]
}

func (c *MetadataChain) disable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled[name] = true
}
