// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package geo

import (
	"math"
	"math/rand"
	"testing"
)

var philly = Point{Lat: 39.9526, Lon: -75.1652}

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      Point
		want      float64
		tolerance float64
	}{
		{name: "same point", a: philly, b: philly, want: 0, tolerance: 1e-9},
		{name: "philadelphia to new york", a: philly, b: Point{Lat: 40.7128, Lon: -74.0060}, want: 129.6, tolerance: 1.5},
		{name: "san francisco to los angeles", a: Point{Lat: 37.7749, Lon: -122.4194}, b: Point{Lat: 34.0522, Lon: -118.2437}, want: 559.1, tolerance: 2},
		{name: "one degree of latitude", a: Point{Lat: 0, Lon: 0}, b: Point{Lat: 1, Lon: 0}, want: 111.19, tolerance: 0.1},
		{name: "across antimeridian", a: Point{Lat: 0, Lon: 179.5}, b: Point{Lat: 0, Lon: -179.5}, want: 111.19, tolerance: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceKm() = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
			if back := DistanceKm(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("DistanceKm() not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestDistanceKmMissing(t *testing.T) {
	t.Parallel()

	if d := DistanceKm(philly, Missing()); !math.IsNaN(d) {
		t.Errorf("DistanceKm(missing) = %v, want NaN", d)
	}
}

// TestWithinRadiusFourAndSixKm checks a 5 km radius includes a point 4 km away
// and excludes one 6 km away.
func TestWithinRadiusFourAndSixKm(t *testing.T) {
	t.Parallel()

	near := Offset(philly, 45, 4)
	far := Offset(philly, 200, 6)

	if d := DistanceKm(philly, near); math.Abs(d-4) > 0.01 {
		t.Fatalf("Offset produced %v km, want 4", d)
	}
	if d := DistanceKm(philly, far); math.Abs(d-6) > 0.01 {
		t.Fatalf("Offset produced %v km, want 6", d)
	}

	if !WithinRadius(philly, near, 5) {
		t.Error("WithinRadius(4 km, 5 km) = false, want true")
	}
	if WithinRadius(philly, far, 5) {
		t.Error("WithinRadius(6 km, 5 km) = true, want false")
	}
}

func TestWithinRadiusEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		center Point
		p      Point
		radius float64
		want   bool
	}{
		{name: "missing point", center: philly, p: Missing(), radius: 5, want: false},
		{name: "missing center", center: Missing(), p: philly, radius: 5, want: false},
		{name: "zero radius", center: philly, p: philly, radius: 0, want: false},
		{name: "negative radius", center: philly, p: philly, radius: -1, want: false},
		{name: "same point", center: philly, p: philly, radius: 0.001, want: true},
		{name: "latitude out of range", center: philly, p: Point{Lat: 91, Lon: 0}, radius: 20000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WithinRadius(tt.center, tt.p, tt.radius); got != tt.want {
				t.Errorf("WithinRadius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPoint(t *testing.T) {
	t.Parallel()

	if _, err := NewPoint(39.9, -75.1); err != nil {
		t.Errorf("NewPoint(valid) error = %v", err)
	}
	if p, err := NewPoint(120, 0); err == nil || p.Valid() {
		t.Errorf("NewPoint(120, 0) = %v, %v; want invalid point and error", p, err)
	}
	if Missing().String() != "(unknown)" {
		t.Errorf("Missing().String() = %q, want (unknown)", Missing().String())
	}
}

func TestMilesToKm(t *testing.T) {
	t.Parallel()

	if got := MilesToKm(30); math.Abs(got-48.28032) > 1e-6 {
		t.Errorf("MilesToKm(30) = %v, want 48.28032", got)
	}
}

func TestGridMatchesLinearScan(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	points := make([]Point, 0, 2000)
	for i := 0; i < 2000; i++ {
		if i%50 == 0 {
			points = append(points, Missing())
			continue
		}
		points = append(points, Offset(philly, rng.Float64()*360, rng.Float64()*80))
	}

	for _, cellKm := range []float64{1, 5, 25} {
		grid := NewGrid(points, cellKm)
		for _, radius := range []float64{0.5, 5, 48.28} {
			got := grid.WithinRadius(philly, radius)

			var want []int
			for pos, p := range points {
				if WithinRadius(philly, p, radius) {
					want = append(want, pos)
				}
			}

			if len(got) != len(want) {
				t.Fatalf("cell=%v radius=%v: got %d neighbors, want %d", cellKm, radius, len(got), len(want))
			}
			for i := range want {
				if got[i].Pos != want[i] {
					t.Fatalf("cell=%v radius=%v: neighbor %d = %d, want %d", cellKm, radius, i, got[i].Pos, want[i])
				}
				if got[i].DistanceKm > radius {
					t.Fatalf("neighbor %d at %v km exceeds radius %v", got[i].Pos, got[i].DistanceKm, radius)
				}
			}
		}
	}
}

func TestGridAntimeridian(t *testing.T) {
	t.Parallel()

	points := []Point{
		{Lat: 0, Lon: 179.99},
		{Lat: 0, Lon: -179.99},
		{Lat: 0, Lon: 180},
		{Lat: 0, Lon: 170},
	}
	grid := NewGrid(points, 5)
	got := grid.WithinRadius(Point{Lat: 0, Lon: 180}, 10)
	if len(got) != 3 {
		t.Fatalf("WithinRadius across antimeridian = %v, want positions 0, 1 and 2", got)
	}
	for i, n := range got {
		if n.Pos != i {
			t.Errorf("neighbor %d = %d, want %d", i, n.Pos, i)
		}
	}
}

func TestGridInvalidQueries(t *testing.T) {
	t.Parallel()

	grid := NewGrid([]Point{philly, Missing()}, 5)
	if grid.Len() != 2 {
		t.Errorf("Len() = %d, want 2", grid.Len())
	}
	if grid.NumCells() != 1 {
		t.Errorf("NumCells() = %d, want 1", grid.NumCells())
	}
	if got := grid.WithinRadius(Missing(), 5); got != nil {
		t.Errorf("WithinRadius(missing center) = %v, want nil", got)
	}
	if got := grid.WithinRadius(philly, 0); got != nil {
		t.Errorf("WithinRadius(zero radius) = %v, want nil", got)
	}
}
