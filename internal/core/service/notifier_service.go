package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/airoverhead/flight-tracker/internal/api/metrics"
	"github.com/airoverhead/flight-tracker/internal/core/domain"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
)

const (
	// payloadLines and payloadWidth are the hardware display dimensions.
	payloadLines = 6
	payloadWidth = 22

	// defaultResetThreshold bounds the notified set: crossing it clears
	// the whole set, trading bursty re-notification for a memory bound.
	defaultResetThreshold = 100

	notifiedSample = 10
)

var thousands = message.NewPrinter(language.English)

// NotifierService deduplicates new-aircraft events and delivers formatted
// payloads to the external display. display may be nil when the integration
// is not configured; every notification then fails fast.
type NotifierService struct {
	display   ports.DisplayClient
	threshold int
	log       zerolog.Logger

	mu       sync.Mutex
	notified map[string]struct{}
}

func NewNotifierService(display ports.DisplayClient, threshold int, log zerolog.Logger) *NotifierService {
	if threshold <= 0 {
		threshold = defaultResetThreshold
	}
	return &NotifierService{
		display:   display,
		threshold: threshold,
		log:       log,
		notified:  make(map[string]struct{}),
	}
}

// Notify sends a display notification for the aircraft unless one was
// already sent this session. Returns (true, nil) on a delivered message and
// (false, nil) on a deduplicated one.
func (n *NotifierService) Notify(ctx context.Context, in ports.NotifyInput) (bool, error) {
	if in.ICAO24 == "" {
		return false, domain.ErrMissingIdentifier
	}
	if n.display == nil {
		return false, domain.ErrDisplayUnavailable
	}

	if !n.shouldNotify(in.ICAO24) {
		n.log.Debug().Str("icao24", in.ICAO24).Msg("aircraft already announced, skipping")
		metrics.NotificationsTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}

	if err := n.display.SendMessage(ctx, FormatPayload(in)); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return false, err
	}

	n.markNotified(in.ICAO24)
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	n.log.Info().Str("icao24", in.ICAO24).Msg("display notification sent")
	return true, nil
}

// SendTest pushes a timestamped connectivity-check message.
func (n *NotifierService) SendTest(ctx context.Context) error {
	if n.display == nil {
		return domain.ErrDisplayUnavailable
	}
	text := "FLIGHT TRACKER TEST\nDisplay connected!\nReady for notifications\n" +
		time.Now().Format("15:04:05")
	return n.display.SendMessage(ctx, text)
}

// Status implements ports.NotifierService.
func (n *NotifierService) Status(ctx context.Context) ports.NotifierStatus {
	st := ports.NotifierStatus{
		Enabled:      n.display != nil,
		TrackedCount: n.TrackedCount(),
	}
	if n.display != nil {
		st.Connected = n.display.TestConnection(ctx)
	}

	n.mu.Lock()
	for icao := range n.notified {
		st.TrackedSample = append(st.TrackedSample, icao)
		if len(st.TrackedSample) == notifiedSample {
			break
		}
	}
	n.mu.Unlock()
	return st
}

// TrackedCount returns the current size of the notified set.
func (n *NotifierService) TrackedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notified)
}

// shouldNotify reports whether the identifier has not been announced yet.
func (n *NotifierService) shouldNotify(icao24 string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, seen := n.notified[icao24]
	return !seen
}

// markNotified records a delivered notification and clears the whole set
// once it outgrows the threshold, allowing lingering aircraft to be
// announced again later.
func (n *NotifierService) markNotified(icao24 string) {
	n.mu.Lock()
	n.notified[icao24] = struct{}{}
	if len(n.notified) > n.threshold {
		n.notified = make(map[string]struct{})
	}
	size := len(n.notified)
	n.mu.Unlock()
	metrics.TrackedAircraft.Set(float64(size))
}

// FormatPayload renders one aircraft as exactly six display lines of at most
// twenty-two characters. Every raw field is truncated before composition;
// numeric fields fall back to the combined "<alt> ft | <heading>°" position
// string and finally to "N/A".
func FormatPayload(in ports.NotifyInput) string {
	altitude, heading := in.AltitudeFt, in.HeadingDeg
	if altitude == nil || heading == nil {
		posAlt, posHeading := parsePositionText(in.PositionText)
		if altitude == nil {
			altitude = posAlt
		}
		if heading == nil {
			heading = posHeading
		}
	}

	manufacturer, model := in.Manufacturer, in.Model
	if manufacturer == "" || model == "" {
		if m, md, ok := splitAircraftType(in.AircraftType); ok {
			if manufacturer == "" {
				manufacturer = m
			}
			if model == "" {
				model = md
			}
		}
	}

	aircraftType := "Unknown"
	switch {
	case manufacturer != "" && model != "":
		aircraftType = strings.Join(strings.Fields(manufacturer+" "+model), " ")
	case manufacturer != "":
		aircraftType = manufacturer
	case model != "":
		aircraftType = model
	}

	operator := in.Operator
	if operator == "" {
		operator = in.RegisteredOwner
	}

	lines := []string{
		truncate(strings.TrimSpace(in.Callsign)) + "   " + truncate(in.Registration),
		truncate(operator) + "  " + truncate(in.Country),
		truncate(aircraftType),
		formatAltitude(altitude),
		formatSpeed(in.SpeedKt),
		formatHeading(heading),
	}
	for i, line := range lines {
		lines[i] = truncate(strings.TrimRight(line, " "))
	}
	return strings.Join(lines, "\n")
}

func formatAltitude(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return thousands.Sprintf("%d ft", int(*v))
}

func formatSpeed(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d knots", int(*v))
}

func formatHeading(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d°", int(*v))
}

// parsePositionText extracts altitude and heading from a combined position
// string of the form "22750 ft | 207°".
func parsePositionText(s string) (*float64, *float64) {
	parts := strings.SplitN(s, "|", 2)
	if len(parts) != 2 {
		return nil, nil
	}

	var altitude, heading *float64
	altFields := strings.Fields(parts[0])
	if len(altFields) > 0 {
		if v, err := strconv.ParseFloat(altFields[0], 64); err == nil {
			altitude = &v
		}
	}
	h := strings.TrimSuffix(strings.TrimSpace(parts[1]), "°")
	if v, err := strconv.ParseFloat(h, 64); err == nil {
		heading = &v
	}
	return altitude, heading
}

// splitAircraftType breaks a combined "Manufacturer: Model" string in two.
func splitAircraftType(s string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}
	if manufacturer, model, found := strings.Cut(s, ":"); found {
		return strings.TrimSpace(manufacturer), strings.TrimSpace(model), true
	}
	return "", s, true
}

// truncate cuts on rune boundaries so a trailing ° is never split.
func truncate(s string) string {
	r := []rune(s)
	if len(r) > payloadWidth {
		return string(r[:payloadWidth])
	}
	return s
}
