package game

import (
	"math"
	"testing"
)

var (
	lima     = Coordinates{Lat: -12.0464, Lng: -77.0428}
	cusco    = Coordinates{Lat: -13.5320, Lng: -71.9675}
	tokyo    = Coordinates{Lat: 35.6762, Lng: 139.6503}
	reykjavik = Coordinates{Lat: 64.1466, Lng: -21.9426}
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	for _, c := range []Coordinates{lima, cusco, tokyo, reykjavik, {}} {
		if d := DistanceKm(c, c); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %f, want 0", c, c, d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]Coordinates{
		{lima, cusco},
		{lima, tokyo},
		{tokyo, reykjavik},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1])
		ba := DistanceKm(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("DistanceKm not symmetric: %f vs %f", ab, ba)
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// Lima to Cusco is roughly 570 km as the crow flies.
	d := DistanceKm(lima, cusco)
	if d < 550 || d > 600 {
		t.Errorf("Lima-Cusco = %f km, expected ~570", d)
	}

	// Antipodal-ish distance stays under half the Earth's circumference.
	if d := DistanceKm(lima, tokyo); d > math.Pi*6371 {
		t.Errorf("Lima-Tokyo = %f km exceeds half circumference", d)
	}
}

func TestScoreMultiplierBands(t *testing.T) {
	cases := []struct {
		distance float64
		want     float64
	}{
		{0, 1.00},
		{1, 0.90},
		{100, 0.90},
		{100.01, 0.75},
		{500, 0.75},
		{750, 0.50},
		{1500, 0.50},
		{1501, 0.25},
		{20000, 0.25},
	}
	for _, c := range cases {
		if got := ScoreMultiplier(c.distance); got != c.want {
			t.Errorf("ScoreMultiplier(%f) = %f, want %f", c.distance, got, c.want)
		}
	}
}

func TestScoreMultiplierNonIncreasing(t *testing.T) {
	prev := ScoreMultiplier(0)
	for d := 0.0; d <= 5000; d += 7.3 {
		cur := ScoreMultiplier(d)
		if cur > prev {
			t.Fatalf("ScoreMultiplier increased at %f km: %f > %f", d, cur, prev)
		}
		prev = cur
	}
}

func TestCategoryLabels(t *testing.T) {
	cases := []struct {
		distance float64
		want     string
	}{
		{0, "perfect"},
		{50, "excellent"},
		{300, "good"},
		{1000, "fair"},
		{3000, "poor"},
	}
	for _, c := range cases {
		if got := CategoryLabel(c.distance); got != c.want {
			t.Errorf("CategoryLabel(%f) = %q, want %q", c.distance, got, c.want)
		}
	}
}
