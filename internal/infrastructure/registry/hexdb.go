package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

const (
	hexdbBaseURL = "https://hexdb.io/api/v1"
	// publicTimeout bounds every call to an unauthenticated registry.
	publicTimeout = 5 * time.Second
)

// HexDB is the first public fallback source. Responses usually nest the
// airframe under an "aircraft" object but have also been seen flat.
type HexDB struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewHexDB(baseURL string, log zerolog.Logger) *HexDB {
	if baseURL == "" {
		baseURL = hexdbBaseURL
	}
	return &HexDB{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: publicTimeout},
		log:     log,
	}
}

func (h *HexDB) Name() string { return "hexdb" }

// FetchMetadata implements ports.MetadataSource.
func (h *HexDB) FetchMetadata(ctx context.Context, icao24 string) (domain.MetadataRecord, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/aircraft/"+icao24, nil)
	if err != nil {
		return domain.MetadataRecord{}, false, err
	}

	resp, err := h.httpc.Do(req)
	if err != nil {
		return domain.MetadataRecord{}, false, fmt.Errorf("hexdb: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.MetadataRecord{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return domain.MetadataRecord{}, false, fmt.Errorf("hexdb: %w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.MetadataRecord{}, false, fmt.Errorf("hexdb: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	fields := objectField(body, "aircraft")
	if fields == nil {
		// Flat response shape.
		if err := json.Unmarshal(body, &fields); err != nil {
			return domain.MetadataRecord{}, false, fmt.Errorf("hexdb: decode: %w", err)
		}
	}

	rec := recordFromFields(fields)
	rec.Raw = body
	return rec, !rec.IsEmpty(), nil
}
