package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters_SamePoint(t *testing.T) {
	t.Parallel()

	if d := DistanceMeters(33.4484, -112.0740, 33.4484, -112.0740); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistanceMeters_KnownCityPair(t *testing.T) {
	t.Parallel()

	// Phoenix to Tucson, roughly 173 km great-circle.
	d := DistanceMeters(33.4484, -112.0740, 32.2226, -110.9747)
	if math.Abs(d-173000) > 3000 {
		t.Errorf("expected ~173km, got %f m", d)
	}
}

func TestDistanceMeters_SmallOffset(t *testing.T) {
	t.Parallel()

	// 45m due north: one degree of latitude is ~111.2 km.
	d := DistanceMeters(33.4484, -112.0740, 33.4484+45.0/111194.93, -112.0740)
	if math.Abs(d-45) > 0.1 {
		t.Errorf("expected ~45m, got %f", d)
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	t.Parallel()

	a := DistanceMeters(33.4484, -112.0740, 35.1983, -111.6513)
	b := DistanceMeters(35.1983, -111.6513, 33.4484, -112.0740)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}
