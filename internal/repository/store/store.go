package store

import (
	"context"
	"fmt"
	"time"
)

// TileKey identifies one cached tile: coordinates plus the owning source name.
type TileKey struct {
	Z      int
	X      int
	Y      int
	Source string
}

// String renders the persisted primary key, "{z}|{x}|{y}|{source}".
func (k TileKey) String() string {
	return fmt.Sprintf("%d|%d|%d|%s", k.Z, k.X, k.Y, k.Source)
}

// TileRecord is one cached tile payload with its HTTP cache directives.
// Tiles are not deduplicated across packs: the same coordinates fetched for
// two packs are stored twice, once per owning pack, so deletion stays scoped
// to a single pack.
type TileRecord struct {
	Key          TileKey
	OwningPack   string
	CacheControl string
	Expires      string
	Data         []byte
}

// PackSource is one resolved data layer of a pack.
type PackSource struct {
	Type             string   `json:"type"`
	TileURLTemplates []string `json:"tiles"`
	TileSize         int      `json:"tileSize"`
}

// PackRecord identifies a named offline cache. A record is listable from the
// moment of creation; SizeBytes stays 0 until the download completes.
type PackRecord struct {
	Name      string                `json:"name"`
	Sources   map[string]PackSource `json:"sources"`
	Bounds    []float64             `json:"bounds"`
	MinZoom   int                   `json:"minZoom"`
	MaxZoom   int                   `json:"maxZoom"`
	SizeBytes int64                 `json:"sizeBytes"`
	CreatedAt time.Time             `json:"createdAt"`
}

type TileStore interface {
	// PutTile stores rec under (key, owningPack). The same coordinates
	// downloaded for two packs yield two records; one pack's write never
	// touches another pack's copy.
	PutTile(ctx context.Context, rec TileRecord) error
	// GetTile returns a record matching key regardless of which pack owns
	// it. When several packs hold the same coordinates any one of them is
	// returned.
	GetTile(ctx context.Context, key TileKey) (TileRecord, bool, error)
	// DeleteTilesByPack removes every tile owned by the named pack. A pack
	// with zero tiles is a no-op, not an error.
	DeleteTilesByPack(ctx context.Context, pack string) error
	DeleteAllTiles(ctx context.Context) error
	CountTilesByPack(ctx context.Context, pack string) (int, error)
}

type PackStore interface {
	PutPack(ctx context.Context, rec PackRecord) error
	GetPack(ctx context.Context, name string) (PackRecord, bool, error)
	ListPacks(ctx context.Context) ([]PackRecord, error)
	DeletePack(ctx context.Context, name string) error
	DeleteAllPacks(ctx context.Context) error
}

// Store is the single shared keyed store holding both collections. It must be
// safe for concurrent use by multiple in-flight downloads.
type Store interface {
	TileStore
	PackStore
	Close() error
}
