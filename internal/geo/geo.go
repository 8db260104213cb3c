// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package geo provides great-circle distance math and the radius filter used
// to restrict recommendations to a neighborhood around the user.
//
// A Point with missing coordinates is never within any radius; such inputs are
// excluded rather than reported as errors.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// KmPerMile converts statute miles to kilometers.
const KmPerMile = 1.609344

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Missing returns a Point that is not Valid.
func Missing() Point {
	return Point{Lat: math.NaN(), Lon: math.NaN()}
}

// NewPoint returns a Point, or an error when the coordinates are out of range.
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Missing(), fmt.Errorf("invalid coordinates (%v, %v)", lat, lon)
	}
	return p, nil
}

// Valid reports whether both coordinates are finite and within range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string {
	if !p.Valid() {
		return "(unknown)"
	}
	return fmt.Sprintf("(%.5f, %.5f)", p.Lat, p.Lon)
}

// DistanceKm returns the haversine distance between a and b in kilometers.
// It returns NaN when either point is not Valid.
func DistanceKm(a, b Point) float64 {
	if !a.Valid() || !b.Valid() {
		return math.NaN()
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// WithinRadius reports whether p lies within radiusKm of center.
// Invalid points and non-positive radii are never within range.
func WithinRadius(center, p Point, radiusKm float64) bool {
	if radiusKm <= 0 {
		return false
	}
	d := DistanceKm(center, p)
	return !math.IsNaN(d) && d <= radiusKm
}

// MilesToKm converts statute miles to kilometers.
func MilesToKm(miles float64) float64 {
	return miles * KmPerMile
}

// Offset returns the point reached by moving distanceKm from p along the
// given bearing (degrees clockwise from north).
func Offset(p Point, bearingDeg, distanceKm float64) Point {
	lat1 := p.Lat * math.Pi / 180
	lon1 := p.Lon * math.Pi / 180
	brng := bearingDeg * math.Pi / 180
	ang := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))

	lon := lon2 * 180 / math.Pi
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return Point{Lat: lat2 * 180 / math.Pi, Lon: lon}
}
