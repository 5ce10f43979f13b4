// Package tilecover computes Web-Mercator tile pyramid coverings of
// geographic points and bounding boxes.
package tilecover

import (
	"errors"
	"fmt"
	"math"
)

// Tile represents tile coordinates in the XYZ scheme (Tiled web map).
type Tile struct {
	Z int
	X int
	Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

func (t Tile) Valid() bool {
	return t.Z >= 0 && t.Z < 32 && t.X >= 0 && t.X < (1<<t.Z) && t.Y >= 0 && t.Y < (1<<t.Z)
}

// Web Mercator latitude limit.
const maxLat = 85.0511287798066

var (
	ErrInvalidBounds = errors.New("tilecover: bounds must have 2 (point) or 4 (bbox) elements")
	ErrInvalidZoom   = errors.New("tilecover: invalid zoom range")
)

// Cover returns the tiles whose footprint intersects bounds, for every zoom
// level from minZoom to maxZoom inclusive. A 2-element bounds is treated as a
// [lng, lat] point, a 4-element bounds as [minLng, minLat, maxLng, maxLat].
// Tiles are ordered by ascending zoom; within a zoom the order is row-major
// and stable across calls.
func Cover(bounds []float64, minZoom, maxZoom int) ([]Tile, error) {
	if minZoom < 0 || maxZoom < minZoom {
		return nil, ErrInvalidZoom
	}

	switch len(bounds) {
	case 2, 4:
	default:
		return nil, ErrInvalidBounds
	}

	var tiles []Tile
	for z := minZoom; z <= maxZoom; z++ {
		if len(bounds) == 2 {
			x, y := tileAt(bounds[0], bounds[1], z)
			tiles = append(tiles, Tile{Z: z, X: x, Y: y})
			continue
		}

		// Latitude grows northwards while tile Y grows southwards, so the
		// max latitude corner yields the min Y.
		xMin, yMax := tileAt(bounds[0], bounds[1], z)
		xMax, yMin := tileAt(bounds[2], bounds[3], z)
		for x := xMin; x <= xMax; x++ {
			for y := yMin; y <= yMax; y++ {
				tiles = append(tiles, Tile{Z: z, X: x, Y: y})
			}
		}
	}

	return tiles, nil
}

// Count returns the number of tiles Cover would yield without materializing them.
func Count(bounds []float64, minZoom, maxZoom int) (int, error) {
	if minZoom < 0 || maxZoom < minZoom {
		return 0, ErrInvalidZoom
	}

	switch len(bounds) {
	case 2:
		return maxZoom - minZoom + 1, nil
	case 4:
	default:
		return 0, ErrInvalidBounds
	}

	n := 0
	for z := minZoom; z <= maxZoom; z++ {
		xMin, yMax := tileAt(bounds[0], bounds[1], z)
		xMax, yMin := tileAt(bounds[2], bounds[3], z)
		n += (xMax - xMin + 1) * (yMax - yMin + 1)
	}
	return n, nil
}

// tileAt returns the coordinates of the tile containing the point at zoom z.
func tileAt(lng, lat float64, z int) (x, y int) {
	lat = clamp(lat, -maxLat, maxLat)

	n := float64(int(1) << z)
	x = int(math.Floor((lng + 180) / 360 * n))

	latRad := lat * math.Pi / 180
	y = int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	max := (1 << z) - 1
	x = clampInt(x, 0, max)
	y = clampInt(y, 0, max)
	return x, y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
