package vestaboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "local-key"}, zerolog.Nop())
}

func TestEncodeText_GridDimensions(t *testing.T) {
	grid := EncodeText("HELLO")
	if len(grid) != Rows {
		t.Fatalf("expected %d rows, got %d", Rows, len(grid))
	}
	for i, row := range grid {
		if len(row) != Columns {
			t.Fatalf("row %d: expected %d columns, got %d", i, Columns, len(row))
		}
	}
}

func TestEncodeText_CharacterCodes(t *testing.T) {
	grid := EncodeText("AB1°")
	want := []int{1, 2, 27, 62}
	for i, code := range want {
		if grid[0][i] != code {
			t.Fatalf("col %d: expected code %d, got %d", i, code, grid[0][i])
		}
	}
	if grid[0][4] != 0 {
		t.Fatalf("expected blank padding, got %d", grid[0][4])
	}
}

func TestEncodeText_UppercasesAndBlanksUnknown(t *testing.T) {
	grid := EncodeText("a~z")
	if grid[0][0] != 1 {
		t.Fatalf("lowercase should be uppercased, got %d", grid[0][0])
	}
	if grid[0][1] != 0 {
		t.Fatalf("unknown rune should render blank, got %d", grid[0][1])
	}
	if grid[0][2] != 26 {
		t.Fatalf("expected Z code, got %d", grid[0][2])
	}
}

func TestEncodeText_ClampsOversizedInput(t *testing.T) {
	long := "ABCDEFGHIJKLMNOPQRSTUVWXYZ" // 26 chars, 4 beyond the width
	text := long + "\n2\n3\n4\n5\n6\n7"  // 7 lines, 1 beyond the height

	grid := EncodeText(text)
	if len(grid) != Rows {
		t.Fatalf("expected %d rows, got %d", Rows, len(grid))
	}
	if len(grid[0]) != Columns {
		t.Fatalf("expected %d columns, got %d", Columns, len(grid[0]))
	}
	if grid[0][Columns-1] != 22 { // 'V', the 22nd letter
		t.Fatalf("expected truncation at column %d, got code %d", Columns, grid[0][Columns-1])
	}
}

func TestDecodeGrid_RoundTrip(t *testing.T) {
	text := "BAW123   G-XLEA\nBRITISH AIRWAYS\nAIRBUS A380-841\n22,750 FT\n400 KNOTS\n207°"
	if got := DecodeGrid(EncodeText(text)); got != text {
		t.Fatalf("round trip mismatch:\nwant %q\ngot  %q", text, got)
	}
}

func TestSendMessage_PostsGrid(t *testing.T) {
	var (
		gotKey  string
		payload struct {
			Characters [][]int `json:"characters"`
		}
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/local-api/message" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("X-Vestaboard-Local-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	if err := c.SendMessage(context.Background(), "HELLO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "local-key" {
		t.Fatalf("api key header not sent, got %q", gotKey)
	}
	if len(payload.Characters) != Rows || len(payload.Characters[0]) != Columns {
		t.Fatalf("unexpected grid shape: %dx%d", len(payload.Characters), len(payload.Characters[0]))
	}
	if payload.Characters[0][0] != 8 { // 'H'
		t.Fatalf("unexpected first code: %d", payload.Characters[0][0])
	}
}

func TestSendMessage_NonCreatedStatusFails(t *testing.T) {
	// The board acknowledges with 201; even a 200 means something is off.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	err := c.SendMessage(context.Background(), "HELLO")
	if !errors.Is(err, domain.ErrDisplayUnavailable) {
		t.Fatalf("expected ErrDisplayUnavailable, got %v", err)
	}
}

func TestReadBoard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		grid := EncodeText("HELLO")
		_ = json.NewEncoder(w).Encode(map[string]any{"message": grid})
	})

	got, err := c.ReadBoard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "HELLO\n\n\n\n\n" {
		t.Fatalf("unexpected board content: %q", got)
	}
}

func TestTestConnection(t *testing.T) {
	ok := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": [][]int{}})
	})
	if !ok.TestConnection(context.Background()) {
		t.Fatal("expected healthy board")
	}

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if down.TestConnection(context.Background()) {
		t.Fatal("expected unhealthy board")
	}
}
