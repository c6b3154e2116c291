package usecase

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
		tolerance              float64
	}{
		{
			name: "identical points",
			lat1: 20.3488, lon1: 85.8162,
			lat2: 20.3488, lon2: 85.8162,
			want: 0, tolerance: 0.001,
		},
		{
			name: "known distance Bhubaneswar to Cuttack",
			lat1: 20.2961, lon1: 85.8245,
			lat2: 20.4625, lon2: 85.8830,
			want: 19400, tolerance: 1000,
		},
		{
			name: "antipodal points",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 180,
			want: math.Pi * earthRadiusMeters, tolerance: 1,
		},
		{
			name: "poles",
			lat1: 90, lon1: 0,
			lat2: -90, lon2: 0,
			want: math.Pi * earthRadiusMeters, tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.IsNaN(got) {
				t.Fatal("Haversine returned NaN")
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Haversine() = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversine_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{20.3488, 85.8162, 20.30, 85.80},
		{0, 0, 0, 180},
		{89.9999, 10, -89.9999, -170},
		{-45.5, 170.2, 45.5, -170.2},
	}

	for _, p := range pairs {
		ab := Haversine(p[0], p[1], p[2], p[3])
		ba := Haversine(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-6 {
			t.Errorf("distance not symmetric: %v vs %v for %v", ab, ba, p)
		}
		if ab < 0 {
			t.Errorf("distance negative: %v for %v", ab, p)
		}
	}
}

func TestHaversine_NearIdenticalNeverNaN(t *testing.T) {
	// Floating-point overshoot pushes the half-chord term just past 1 or
	// below 0 for these; the clamp must absorb it
	base := 51.5007
	for _, delta := range []float64{0, 1e-15, 1e-12, 1e-9} {
		got := Haversine(base, -0.1246, base+delta, -0.1246)
		if math.IsNaN(got) || got < 0 {
			t.Errorf("Haversine(delta=%v) = %v, want finite non-negative", delta, got)
		}
	}
}
