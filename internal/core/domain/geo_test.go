package domain

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// One degree of longitude on the equator.
	got := Haversine(0, 0, 0, 1)
	want := 111.19
	if math.Abs(got-want) > 0.05 {
		t.Fatalf("expected ~%v km, got %v", want, got)
	}
}

func TestHaversine_ZeroDistance(t *testing.T) {
	if d := Haversine(51.5995, -0.5545, 51.5995, -0.5545); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestNewBoundingBox_ContainsCircle(t *testing.T) {
	const (
		lat    = 51.5995
		lon    = -0.5545
		radius = 5.0
	)
	box := NewBoundingBox(lat, lon, radius)

	if box.MinLat >= lat || box.MaxLat <= lat {
		t.Fatalf("center latitude outside box: %+v", box)
	}
	if box.MinLon >= lon || box.MaxLon <= lon {
		t.Fatalf("center longitude outside box: %+v", box)
	}

	// Every point inside the circle must land inside the box: walk the
	// circle's rim at several bearings.
	for deg := 0; deg < 360; deg += 15 {
		rad := float64(deg) * math.Pi / 180
		pLat := lat + (radius/111.32)*math.Sin(rad)
		pLon := lon + (radius/(111.32*math.Cos(lat*math.Pi/180)))*math.Cos(rad)
		if Haversine(lat, lon, pLat, pLon) > radius+0.01 {
			continue
		}
		if pLat < box.MinLat || pLat > box.MaxLat || pLon < box.MinLon || pLon > box.MaxLon {
			t.Fatalf("point (%v, %v) inside circle but outside box %+v", pLat, pLon, box)
		}
	}
}

func TestFilterByRadius_FiltersAndSorts(t *testing.T) {
	positions := []Position{
		{ICAO24: "far", Latitude: 0.2, Longitude: 0},   // ~22.2 km
		{ICAO24: "mid", Latitude: 0.08, Longitude: 0},  // ~8.9 km
		{ICAO24: "near", Latitude: 0.05, Longitude: 0}, // ~5.6 km
	}

	got := FilterByRadius(0, 0, 10, positions)
	if len(got) != 2 {
		t.Fatalf("expected 2 aircraft, got %d", len(got))
	}
	if got[0].ICAO24 != "near" || got[1].ICAO24 != "mid" {
		t.Fatalf("expected nearest-first order, got %s, %s", got[0].ICAO24, got[1].ICAO24)
	}
	if got[0].DistanceKm != 5.6 {
		t.Fatalf("expected distance 5.6, got %v", got[0].DistanceKm)
	}
	if got[1].DistanceKm != 8.9 {
		t.Fatalf("expected distance 8.9, got %v", got[1].DistanceKm)
	}
}

func TestFilterByRadius_FiltersOnUnroundedDistance(t *testing.T) {
	// ~10.04 km out: the display value would round down to 10.0, but the
	// cut must happen on the exact distance.
	positions := []Position{{ICAO24: "edge", Latitude: 0.0903, Longitude: 0}}

	if got := FilterByRadius(0, 0, 10, positions); len(got) != 0 {
		t.Fatalf("expected aircraft beyond radius to be dropped, got %d", len(got))
	}
}

func TestFilterByRadius_IncludesExactBoundary(t *testing.T) {
	const lat, lon = 51.5995, -0.5545
	p := Position{ICAO24: "rim", Latitude: lat + 0.05, Longitude: lon}

	// Use the point's own distance as the radius: "within" includes the rim.
	d := Haversine(lat, lon, p.Latitude, p.Longitude)
	got := FilterByRadius(lat, lon, d, []Position{p})
	if len(got) != 1 {
		t.Fatalf("aircraft at exactly the radius must be kept, got %d", len(got))
	}
}

func TestFilterByRadius_Empty(t *testing.T) {
	got := FilterByRadius(51.5995, -0.5545, 5, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestValidateQuery(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lon     float64
		radius  float64
		wantErr error
	}{
		{"valid", 51.5995, -0.5545, 5, nil},
		{"lat too low", -90.1, 0, 5, ErrInvalidLatitude},
		{"lat too high", 90.1, 0, 5, ErrInvalidLatitude},
		{"lat boundary", 90, 0, 5, nil},
		{"lon too low", 0, -180.1, 5, ErrInvalidLongitude},
		{"lon too high", 0, 180.1, 5, ErrInvalidLongitude},
		{"lon boundary", 0, -180, 5, nil},
		{"radius too small", 0, 0, 0.5, ErrInvalidRadius},
		{"radius too large", 0, 0, 101, ErrInvalidRadius},
		{"radius boundaries", 0, 0, 1, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateQuery(tc.lat, tc.lon, tc.radius); err != tc.wantErr {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
