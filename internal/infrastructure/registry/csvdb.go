package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

// CSVDatabase is the offline last-resort source: the bulk OpenSky aircraft
// registration export, loaded lazily on first lookup and kept in memory.
// A missing or unreadable file degrades to an always-absent source.
type CSVDatabase struct {
	path string
	log  zerolog.Logger

	once    sync.Once
	records map[string]domain.MetadataRecord
}

func NewCSVDatabase(path string, log zerolog.Logger) *CSVDatabase {
	return &CSVDatabase{path: path, log: log}
}

func (d *CSVDatabase) Name() string { return "opensky-csv" }

// FetchMetadata implements ports.MetadataSource. Lookups never hit the
// network, so the context is unused beyond the interface contract.
func (d *CSVDatabase) FetchMetadata(_ context.Context, icao24 string) (domain.MetadataRecord, bool, error) {
	d.once.Do(d.load)
	rec, ok := d.records[strings.ToLower(icao24)]
	return rec, ok, nil
}

// Size returns the number of loaded records, forcing the lazy load.
func (d *CSVDatabase) Size() int {
	d.once.Do(d.load)
	return len(d.records)
}

func (d *CSVDatabase) load() {
	d.records = make(map[string]domain.MetadataRecord)
	if d.path == "" {
		return
	}

	f, err := os.Open(d.path)
	if err != nil {
		d.log.Warn().Err(err).Str("path", d.path).Msg("registration database unavailable")
		return
	}
	defer f.Close()

	if err := d.parse(f); err != nil {
		d.log.Warn().Err(err).Str("path", d.path).Msg("registration database unreadable")
		return
	}
	d.log.Info().Int("records", len(d.records)).Str("path", d.path).Msg("registration database loaded")
}

func (d *CSVDatabase) parse(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	icaoCol, ok := col["icao24"]
	if !ok {
		return fmt.Errorf("missing icao24 column")
	}

	field := func(row []string, name string) *string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return nil
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return &v
		}
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Tolerate individual malformed rows.
			continue
		}
		if icaoCol >= len(row) {
			continue
		}
		icao := strings.ToLower(strings.TrimSpace(row[icaoCol]))
		if icao == "" {
			continue
		}
		d.records[icao] = domain.MetadataRecord{
			Manufacturer: field(row, "manufacturername"),
			Model:        field(row, "model"),
			Registration: field(row, "registration"),
			Operator:     field(row, "operator"),
			SerialNumber: field(row, "serialnumber"),
		}
	}
}
