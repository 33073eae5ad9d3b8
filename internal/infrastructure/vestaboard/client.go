// Package vestaboard implements the local-API client for the external
// split-flap display: a 6x22 grid of small integer character codes, written
// with a POST and read back with a GET.
package vestaboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

const (
	// Rows and Columns are fixed by the hardware.
	Rows    = 6
	Columns = 22

	defaultTimeout = 10 * time.Second
	apiKeyHeader   = "X-Vestaboard-Local-Api-Key"
	messagePath    = "/local-api/message"
)

// charCodes maps displayable runes to Vestaboard character codes. Unknown
// runes render as blank (0).
var charCodes = map[rune]int{
	' ': 0,
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8, 'I': 9, 'J': 10,
	'K': 11, 'L': 12, 'M': 13, 'N': 14, 'O': 15, 'P': 16, 'Q': 17, 'R': 18, 'S': 19, 'T': 20,
	'U': 21, 'V': 22, 'W': 23, 'X': 24, 'Y': 25, 'Z': 26,
	'1': 27, '2': 28, '3': 29, '4': 30, '5': 31, '6': 32, '7': 33, '8': 34, '9': 35, '0': 36,
	'!': 37, '@': 38, '#': 39, '$': 40, '(': 41, ')': 42, '-': 44, '+': 46, '&': 47, '=': 48,
	';': 49, ':': 50, '\'': 52, '"': 53, '%': 54, ',': 55, '.': 56, '/': 59, '?': 60, '°': 62,
}

var codeToChar = func() map[int]rune {
	m := make(map[int]rune, len(charCodes))
	for r, code := range charCodes {
		m[code] = r
	}
	return m
}()

// Config captures the settings for reaching the display on the local
// network.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to one Vestaboard over its local HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

type messagePayload struct {
	Characters [][]int `json:"characters"`
}

// SendMessage renders text onto the board. Lines beyond six and characters
// beyond twenty-two per line are dropped; the board acknowledges a write
// with 201.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(messagePayload{Characters: EncodeText(text)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagePath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("vestaboard send: %w: %w", domain.ErrDisplayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("vestaboard send: %w: status %d", domain.ErrDisplayUnavailable, resp.StatusCode)
	}
	return nil
}

// ReadBoard returns the current board content decoded back to text.
func (c *Client) ReadBoard(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+messagePath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("vestaboard read: %w: %w", domain.ErrDisplayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vestaboard read: %w: status %d", domain.ErrDisplayUnavailable, resp.StatusCode)
	}

	var result struct {
		Message [][]int `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("vestaboard read: decode: %w", err)
	}
	return DecodeGrid(result.Message), nil
}

// TestConnection reports whether the board answers a read.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.ReadBoard(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("vestaboard connection test failed")
	}
	return err == nil
}

// EncodeText converts text into the fixed 6x22 character-code grid,
// uppercasing letters, blanking unknown runes, and padding short lines and
// missing rows with blanks.
func EncodeText(text string) [][]int {
	lines := strings.Split(text, "\n")
	if len(lines) > Rows {
		lines = lines[:Rows]
	}

	grid := make([][]int, 0, Rows)
	for _, line := range lines {
		row := make([]int, 0, Columns)
		for _, r := range strings.ToUpper(line) {
			if len(row) == Columns {
				break
			}
			row = append(row, charCodes[r])
		}
		for len(row) < Columns {
			row = append(row, 0)
		}
		grid = append(grid, row)
	}
	for len(grid) < Rows {
		grid = append(grid, make([]int, Columns))
	}
	return grid
}

// DecodeGrid converts a character-code grid back into text, trimming
// trailing blanks per row.
func DecodeGrid(grid [][]int) string {
	lines := make([]string, 0, len(grid))
	for _, row := range grid {
		var b strings.Builder
		for _, code := range row {
			if r, ok := codeToChar[code]; ok {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}
