package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
)

func setupBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger.NopLogger{})
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func testTile(z, x, y int, source, pack string, data []byte) TileRecord {
	return TileRecord{
		Key:          TileKey{Z: z, X: x, Y: y, Source: source},
		OwningPack:   pack,
		CacheControl: "max-age=3600",
		Expires:      "Thu, 01 Jan 2026 00:00:00 GMT",
		Data:         data,
	}
}

func testPack(name string) PackRecord {
	return PackRecord{
		Name: name,
		Sources: map[string]PackSource{
			"satellite": {
				Type:             "offline-raster",
				TileURLTemplates: []string{"https://tiles.test/{z}/{x}/{y}.png"},
				TileSize:         512,
			},
		},
		Bounds:    []float64{-122.5, 37.7, -122.3, 37.9},
		MinZoom:   8,
		MaxZoom:   10,
		CreatedAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestTileKeyString(t *testing.T) {
	key := TileKey{Z: 12, X: 654, Y: 1583, Source: "satellite"}
	if got := key.String(); got != "12|654|1583|satellite" {
		t.Errorf("expected 12|654|1583|satellite, got %s", got)
	}
}

func TestTileRoundTrip(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testTile(12, 654, 1583, "satellite", "bay-area", []byte("tile bytes"))

			if err := s.PutTile(ctx, rec); err != nil {
				t.Fatalf("PutTile failed: %v", err)
			}

			got, ok, err := s.GetTile(ctx, rec.Key)
			if err != nil {
				t.Fatalf("GetTile failed: %v", err)
			}
			if !ok {
				t.Fatal("expected tile to exist")
			}
			if diff := cmp.Diff(rec, got); diff != "" {
				t.Errorf("tile mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetTileMissing(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.GetTile(context.Background(), TileKey{Z: 1, X: 0, Y: 0, Source: "nope"})
			if err != nil {
				t.Fatalf("GetTile failed: %v", err)
			}
			if ok {
				t.Error("expected tile to be absent")
			}
		})
	}
}

func TestDeleteTilesByPackScoped(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			mine := testTile(5, 1, 2, "satellite", "mine", []byte("a"))
			// The same geographic tile under a different source stays: tiles
			// are stored once per owning pack.
			other := testTile(5, 1, 2, "terrain", "other", []byte("b"))

			if err := s.PutTile(ctx, mine); err != nil {
				t.Fatalf("PutTile failed: %v", err)
			}
			if err := s.PutTile(ctx, other); err != nil {
				t.Fatalf("PutTile failed: %v", err)
			}

			if err := s.DeleteTilesByPack(ctx, "mine"); err != nil {
				t.Fatalf("DeleteTilesByPack failed: %v", err)
			}

			if _, ok, _ := s.GetTile(ctx, mine.Key); ok {
				t.Error("expected deleted pack's tile to be gone")
			}
			if _, ok, _ := s.GetTile(ctx, other.Key); !ok {
				t.Error("expected other pack's tile to survive")
			}
		})
	}
}

func TestSameTileStoredPerPack(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Two packs downloading the same (z, x, y, source) each keep
			// their own record; neither write touches the other's copy.
			first := testTile(5, 1, 2, "satellite", "first", []byte("first bytes"))
			second := testTile(5, 1, 2, "satellite", "second", []byte("second bytes"))

			if err := s.PutTile(ctx, first); err != nil {
				t.Fatalf("PutTile failed: %v", err)
			}
			if err := s.PutTile(ctx, second); err != nil {
				t.Fatalf("PutTile failed: %v", err)
			}

			for _, pack := range []string{"first", "second"} {
				n, err := s.CountTilesByPack(ctx, pack)
				if err != nil {
					t.Fatalf("CountTilesByPack failed: %v", err)
				}
				if n != 1 {
					t.Errorf("expected pack %s to own 1 tile, got %d", pack, n)
				}
			}

			got, ok, err := s.GetTile(ctx, first.Key)
			if err != nil {
				t.Fatalf("GetTile failed: %v", err)
			}
			if !ok {
				t.Fatal("expected a record for the shared coordinates")
			}
			if got.OwningPack != "first" && got.OwningPack != "second" {
				t.Fatalf("unexpected owner %q", got.OwningPack)
			}

			if err := s.DeleteTilesByPack(ctx, "second"); err != nil {
				t.Fatalf("DeleteTilesByPack failed: %v", err)
			}

			got, ok, err = s.GetTile(ctx, first.Key)
			if err != nil {
				t.Fatalf("GetTile failed: %v", err)
			}
			if !ok {
				t.Fatal("expected the first pack's copy to survive the delete")
			}
			if diff := cmp.Diff(first, got); diff != "" {
				t.Errorf("surviving record mismatch (-want +got):\n%s", diff)
			}

			n, err := s.CountTilesByPack(ctx, "second")
			if err != nil {
				t.Fatalf("CountTilesByPack failed: %v", err)
			}
			if n != 0 {
				t.Errorf("expected deleted pack to own 0 tiles, got %d", n)
			}
		})
	}
}

func TestDeleteTilesByPackEmpty(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.DeleteTilesByPack(context.Background(), "no-such-pack"); err != nil {
				t.Errorf("empty cascade should be a no-op, got %v", err)
			}
		})
	}
}

func TestPackRoundTrip(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testPack("bay-area")

			if err := s.PutPack(ctx, rec); err != nil {
				t.Fatalf("PutPack failed: %v", err)
			}

			got, ok, err := s.GetPack(ctx, "bay-area")
			if err != nil {
				t.Fatalf("GetPack failed: %v", err)
			}
			if !ok {
				t.Fatal("expected pack to exist")
			}
			// Drivers may hand the timestamp back in a different location.
			if !got.CreatedAt.Equal(rec.CreatedAt) {
				t.Errorf("expected createdAt %v, got %v", rec.CreatedAt, got.CreatedAt)
			}
			got.CreatedAt = rec.CreatedAt
			if diff := cmp.Diff(rec, got); diff != "" {
				t.Errorf("pack mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPackSizeUpdate(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testPack("bay-area")

			if err := s.PutPack(ctx, rec); err != nil {
				t.Fatalf("PutPack failed: %v", err)
			}

			rec.SizeBytes = 123456
			if err := s.PutPack(ctx, rec); err != nil {
				t.Fatalf("PutPack update failed: %v", err)
			}

			got, _, err := s.GetPack(ctx, "bay-area")
			if err != nil {
				t.Fatalf("GetPack failed: %v", err)
			}
			if got.SizeBytes != 123456 {
				t.Errorf("expected size 123456, got %d", got.SizeBytes)
			}
		})
	}
}

func TestListPacks(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			packs, err := s.ListPacks(ctx)
			if err != nil {
				t.Fatalf("ListPacks failed: %v", err)
			}
			if len(packs) != 0 {
				t.Fatalf("expected empty list, got %d packs", len(packs))
			}

			for _, n := range []string{"one", "two", "three"} {
				if err := s.PutPack(ctx, testPack(n)); err != nil {
					t.Fatalf("PutPack failed: %v", err)
				}
			}

			packs, err = s.ListPacks(ctx)
			if err != nil {
				t.Fatalf("ListPacks failed: %v", err)
			}
			if len(packs) != 3 {
				t.Errorf("expected 3 packs, got %d", len(packs))
			}
		})
	}
}

func TestDeleteAll(t *testing.T) {
	for name, s := range setupBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := s.PutPack(ctx, testPack("bay-area")); err != nil {
				t.Fatalf("PutPack failed: %v", err)
			}
			tile := testTile(8, 40, 98, "satellite", "bay-area", []byte("x"))
			if err := s.PutTile(ctx, tile); err != nil {
				t.Fatalf("PutTile failed: %v", err)
			}

			if err := s.DeleteAllTiles(ctx); err != nil {
				t.Fatalf("DeleteAllTiles failed: %v", err)
			}
			if err := s.DeleteAllPacks(ctx); err != nil {
				t.Fatalf("DeleteAllPacks failed: %v", err)
			}

			if _, ok, _ := s.GetTile(ctx, tile.Key); ok {
				t.Error("expected tiles collection to be empty")
			}
			packs, err := s.ListPacks(ctx)
			if err != nil {
				t.Fatalf("ListPacks failed: %v", err)
			}
			if len(packs) != 0 {
				t.Errorf("expected no packs, got %d", len(packs))
			}

			// Safe to call again on an empty store.
			if err := s.DeleteAllTiles(ctx); err != nil {
				t.Errorf("DeleteAllTiles on empty store failed: %v", err)
			}
			if err := s.DeleteAllPacks(ctx); err != nil {
				t.Errorf("DeleteAllPacks on empty store failed: %v", err)
			}
		})
	}
}
