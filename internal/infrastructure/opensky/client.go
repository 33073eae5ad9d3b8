// Package opensky implements the primary positional source: the OpenSky
// Network REST API, authenticated with an OAuth2 client-credentials token
// when credentials are configured, anonymous (rate-limited) otherwise.
package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

const (
	defaultBaseURL  = "https://opensky-network.org/api"
	defaultTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"
	defaultTimeout  = 30 * time.Second

	// Unit conversions from OpenSky SI units to display units.
	metersToFeet      = 3.28084
	msToKnots         = 1.94384
	msToFeetPerMinute = 196.85
)

// Config captures the settings for the OpenSky client.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Client queries OpenSky state vectors. Token acquisition and refresh are
// handled by the oauth2 transport.
type Client struct {
	baseURL string
	httpc   *http.Client
	auth    bool
	log     zerolog.Logger
}

// NewClient builds a Client. With empty credentials the client falls back to
// anonymous access.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	base := &http.Client{Timeout: cfg.Timeout}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   base,
		log:     log,
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		c.httpc = cc.Client(ctx)
		c.httpc.Timeout = cfg.Timeout
		c.auth = true
	} else {
		log.Warn().Msg("opensky credentials not configured, using anonymous access")
	}

	return c
}

// Authenticated reports whether OAuth2 credentials are configured.
func (c *Client) Authenticated() bool { return c.auth }

// statesResponse is the envelope of GET /states/all. Each state is a
// positional array of mixed types, decoded index by index.
type statesResponse struct {
	Time   int64             `json:"time"`
	States []json.RawMessage `json:"states"`
}

// Indexes into an OpenSky state vector array.
const (
	stateICAO24       = 0
	stateCallsign     = 1
	stateCountry      = 2
	stateLongitude    = 5
	stateLatitude     = 6
	stateBaroAltitude = 7
	stateOnGround     = 8
	stateVelocity     = 9
	stateTrueTrack    = 10
	stateVerticalRate = 11
)

// FetchStates queries all state vectors inside the bounding box and converts
// them to display units. Records without a position are skipped. An empty
// slice is a valid result.
func (c *Client) FetchStates(ctx context.Context, box domain.BoundingBox) ([]domain.Position, error) {
	q := url.Values{}
	q.Set("lamin", formatCoord(box.MinLat))
	q.Set("lamax", formatCoord(box.MaxLat))
	q.Set("lomin", formatCoord(box.MinLon))
	q.Set("lomax", formatCoord(box.MaxLon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/states/all?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opensky states: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("opensky states: %w", domain.ErrAuthFailure)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("opensky states: %w", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("opensky states: %w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("opensky states: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	var envelope statesResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("opensky states: decode: %w", err)
	}

	positions := make([]domain.Position, 0, len(envelope.States))
	for _, raw := range envelope.States {
		var state []any
		if err := json.Unmarshal(raw, &state); err != nil {
			c.log.Debug().Err(err).Msg("skipping undecodable state vector")
			continue
		}
		if p, ok := decodeState(state); ok {
			positions = append(positions, p)
		}
	}
	return positions, nil
}

// decodeState converts one positional state array into a Position. Vectors
// without both coordinates are dropped.
func decodeState(state []any) (domain.Position, bool) {
	lon := floatAt(state, stateLongitude)
	lat := floatAt(state, stateLatitude)
	if lon == nil || lat == nil {
		return domain.Position{}, false
	}

	p := domain.Position{
		ICAO24:    stringAt(state, stateICAO24),
		Country:   stringAt(state, stateCountry),
		Latitude:  *lat,
		Longitude: *lon,
		OnGround:  boolAt(state, stateOnGround),
	}
	if cs := strings.TrimSpace(stringAt(state, stateCallsign)); cs != "" {
		p.Callsign = &cs
	}
	p.AltitudeFt = scaled(floatAt(state, stateBaroAltitude), metersToFeet)
	p.SpeedKt = scaled(floatAt(state, stateVelocity), msToKnots)
	p.HeadingDeg = floatAt(state, stateTrueTrack)
	p.VerticalRateFtMin = scaled(floatAt(state, stateVerticalRate), msToFeetPerMinute)
	return p, true
}

func stringAt(state []any, i int) string {
	if i >= len(state) {
		return ""
	}
	s, _ := state[i].(string)
	return s
}

func floatAt(state []any, i int) *float64 {
	if i >= len(state) {
		return nil
	}
	f, ok := state[i].(float64)
	if !ok {
		return nil
	}
	return &f
}

func boolAt(state []any, i int) bool {
	if i >= len(state) {
		return false
	}
	b, _ := state[i].(bool)
	return b
}

func scaled(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v * factor
	return &out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
