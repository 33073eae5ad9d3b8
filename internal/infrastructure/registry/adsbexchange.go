package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

const adsbexchangeBaseURL = "https://public-api.adsbexchange.com/VirtualRadar"

// ADSBExchange is the second public fallback source. Its aircraft-list
// endpoint answers with every aircraft matching the filter, so the response
// is scanned for the requested identifier.
type ADSBExchange struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewADSBExchange(baseURL string, log zerolog.Logger) *ADSBExchange {
	if baseURL == "" {
		baseURL = adsbexchangeBaseURL
	}
	return &ADSBExchange{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: publicTimeout},
		log:     log,
	}
}

func (a *ADSBExchange) Name() string { return "adsbexchange" }

// FetchMetadata implements ports.MetadataSource.
func (a *ADSBExchange) FetchMetadata(ctx context.Context, icao24 string) (domain.MetadataRecord, bool, error) {
	endpoint := a.baseURL + "/AircraftList.json?icao=" + url.QueryEscape(icao24)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.MetadataRecord{}, false, err
	}

	resp, err := a.httpc.Do(req)
	if err != nil {
		return domain.MetadataRecord{}, false, fmt.Errorf("adsbexchange: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.MetadataRecord{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return domain.MetadataRecord{}, false, fmt.Errorf("adsbexchange: %w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.MetadataRecord{}, false, fmt.Errorf("adsbexchange: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	var envelope struct {
		AircraftList []map[string]any `json:"acList"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.MetadataRecord{}, false, fmt.Errorf("adsbexchange: decode: %w", err)
	}

	for _, fields := range envelope.AircraftList {
		if !strings.EqualFold(stringField(fields, "Icao"), icao24) {
			continue
		}
		rec := recordFromFields(fields)
		rec.Raw = body
		return rec, !rec.IsEmpty(), nil
	}
	return domain.MetadataRecord{}, false, nil
}
