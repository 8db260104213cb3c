// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package geo

import (
	"math"
	"sort"
)

// kmPerDegree is the approximate length of one degree of latitude.
const kmPerDegree = 111.0

// Grid divides geographic space into cells so that a radius query only
// inspects entries in nearby cells instead of the whole catalog.
//
// A Grid is immutable once built and safe for concurrent readers. Entries are
// identified by their position in the slice passed to NewGrid.
//
// Time Complexity:
//   - Build: O(n)
//   - WithinRadius: O(k) where k = entries in the cells around the center
type Grid struct {
	cells    map[cellKey][]int
	points   []Point
	cellSize float64 // degrees
}

type cellKey struct {
	X, Y int
}

// Neighbor is a grid entry that passed an exact radius check.
type Neighbor struct {
	Pos        int
	DistanceKm float64
}

// NewGrid indexes points with cells of roughly cellSizeKm on a side.
// Invalid points are kept out of every cell and can never match a query.
func NewGrid(points []Point, cellSizeKm float64) *Grid {
	if cellSizeKm <= 0 {
		cellSizeKm = 10
	}

	g := &Grid{
		cells:    make(map[cellKey][]int),
		points:   points,
		cellSize: cellSizeKm / kmPerDegree,
	}

	for pos, p := range points {
		if !p.Valid() {
			continue
		}
		k := g.key(p)
		g.cells[k] = append(g.cells[k], pos)
	}

	return g
}

func (g *Grid) key(p Point) cellKey {
	lon := p.Lon
	if lon >= 180 {
		lon -= 360
	}
	return cellKey{
		X: int(math.Floor(lon / g.cellSize)),
		Y: int(math.Floor(p.Lat / g.cellSize)),
	}
}

// Len returns the number of indexed points, including invalid ones.
func (g *Grid) Len() int {
	return len(g.points)
}

// NumCells returns the number of non-empty cells.
func (g *Grid) NumCells() int {
	return len(g.cells)
}

// WithinRadius returns every entry within radiusKm of center, ordered by position.
// An invalid center or non-positive radius yields no entries.
func (g *Grid) WithinRadius(center Point, radiusKm float64) []Neighbor {
	if !center.Valid() || radiusKm <= 0 {
		return nil
	}

	radiusDeg := radiusKm / kmPerDegree
	dy := int(math.Ceil(radiusDeg/g.cellSize)) + 1

	// Longitude cells narrow toward the poles.
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dx := dy
	if cosLat > 1e-6 {
		dx = int(math.Ceil(radiusDeg/(g.cellSize*cosLat))) + 1
	}
	maxX := int(math.Ceil(360/g.cellSize)) + 1

	var out []Neighbor
	if dx >= maxX/2 {
		// Neighborhood spans every longitude; fall back to a full scan.
		for pos, p := range g.points {
			if d := DistanceKm(center, p); !math.IsNaN(d) && d <= radiusKm {
				out = append(out, Neighbor{Pos: pos, DistanceKm: d})
			}
		}
		return out
	}

	c := g.key(center)
	for x := c.X - dx; x <= c.X+dx; x++ {
		wx := wrapCellX(x, g.cellSize)
		for y := c.Y - dy; y <= c.Y+dy; y++ {
			for _, pos := range g.cells[cellKey{X: wx, Y: y}] {
				if d := DistanceKm(center, g.points[pos]); d <= radiusKm {
					out = append(out, Neighbor{Pos: pos, DistanceKm: d})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return dedupe(out)
}

// wrapCellX maps a cell column across the antimeridian.
func wrapCellX(x int, cellSize float64) int {
	lon := (float64(x) + 0.5) * cellSize
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return int(math.Floor(lon / cellSize))
}

// dedupe drops repeated positions from a sorted slice. Wrapped columns can
// visit the same cell twice near the antimeridian.
func dedupe(in []Neighbor) []Neighbor {
	if len(in) < 2 {
		return in
	}
	out := in[:1]
	for _, n := range in[1:] {
		if n.Pos != out[len(out)-1].Pos {
			out = append(out, n)
		}
	}
	return out
}
