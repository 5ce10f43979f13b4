package tilecover

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoverPoint(t *testing.T) {
	tiles, err := Cover([]float64{0.5, 0.5}, 2, 2)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}

	want := []Tile{{Z: 2, X: 2, Y: 1}}
	if diff := cmp.Diff(want, tiles); diff != "" {
		t.Errorf("point cover mismatch (-want +got):\n%s", diff)
	}
}

func TestCoverPointPerZoom(t *testing.T) {
	tiles, err := Cover([]float64{13.4, 52.5}, 0, 5)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}

	// A point yields exactly one tile per zoom level.
	if len(tiles) != 6 {
		t.Fatalf("expected 6 tiles, got %d", len(tiles))
	}
	for i, tile := range tiles {
		if tile.Z != i {
			t.Errorf("tile %d: expected zoom %d, got %d", i, i, tile.Z)
		}
		if !tile.Valid() {
			t.Errorf("tile %d: invalid coordinates %v", i, tile)
		}
	}
}

func TestCoverBBoxFourTiles(t *testing.T) {
	// At zoom 1 the world is a 2x2 grid; a near-global bbox covers all of it.
	tiles, err := Cover([]float64{-170, -80, 170, 80}, 1, 1)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}

	want := []Tile{
		{Z: 1, X: 0, Y: 0},
		{Z: 1, X: 0, Y: 1},
		{Z: 1, X: 1, Y: 0},
		{Z: 1, X: 1, Y: 1},
	}
	if diff := cmp.Diff(want, tiles); diff != "" {
		t.Errorf("bbox cover mismatch (-want +got):\n%s", diff)
	}
}

func TestCoverAscendingZoomOrder(t *testing.T) {
	tiles, err := Cover([]float64{-10, -10, 10, 10}, 2, 6)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}

	if len(tiles) == 0 {
		t.Fatal("expected a non-empty covering")
	}
	prev := tiles[0].Z
	for _, tile := range tiles {
		if tile.Z < prev {
			t.Fatalf("zoom order not ascending: %d after %d", tile.Z, prev)
		}
		prev = tile.Z
	}
}

func TestCoverDeterministic(t *testing.T) {
	bounds := []float64{-122.5, 37.7, -122.3, 37.9}

	first, err := Cover(bounds, 8, 12)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}
	second, err := Cover(bounds, 8, 12)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated calls disagree (-first +second):\n%s", diff)
	}
}

func TestCoverInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		bounds  []float64
		minZoom int
		maxZoom int
		want    error
	}{
		{"three coordinates", []float64{1, 2, 3}, 0, 1, ErrInvalidBounds},
		{"empty bounds", nil, 0, 1, ErrInvalidBounds},
		{"min above max", []float64{0, 0, 1, 1}, 5, 4, ErrInvalidZoom},
		{"negative zoom", []float64{0, 0, 1, 1}, -1, 4, ErrInvalidZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cover(tt.bounds, tt.minZoom, tt.maxZoom)
			if err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCountMatchesCover(t *testing.T) {
	tests := []struct {
		name    string
		bounds  []float64
		minZoom int
		maxZoom int
	}{
		{"point", []float64{13.4, 52.5}, 0, 8},
		{"small bbox", []float64{-122.5, 37.7, -122.3, 37.9}, 6, 12},
		{"near-global bbox", []float64{-170, -80, 170, 80}, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles, err := Cover(tt.bounds, tt.minZoom, tt.maxZoom)
			if err != nil {
				t.Fatalf("Cover failed: %v", err)
			}
			count, err := Count(tt.bounds, tt.minZoom, tt.maxZoom)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != len(tiles) {
				t.Errorf("Count = %d, Cover yielded %d tiles", count, len(tiles))
			}
		})
	}
}

func TestCoverClampsAtDateline(t *testing.T) {
	tiles, err := Cover([]float64{180, 85.1}, 3, 3)
	if err != nil {
		t.Fatalf("Cover failed: %v", err)
	}

	for _, tile := range tiles {
		if !tile.Valid() {
			t.Errorf("out-of-range tile %v", tile)
		}
	}
}

func TestTileString(t *testing.T) {
	got := Tile{Z: 3, X: 2, Y: 1}.String()
	if got != "3/2/1" {
		t.Errorf("expected 3/2/1, got %s", got)
	}
}
