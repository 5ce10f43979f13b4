package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/jczaplew/gl-js-offline/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore is the durable keyed store backend. The tiles table carries a
// secondary index on owning_pack so cascading deletes are a single indexed
// statement instead of a full scan.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		return nil, err
	}

	l.Info("sqlite store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(s.db, "migrations")
	if err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutTile(ctx context.Context, rec TileRecord) error {
	query := `INSERT INTO tiles (tile_id, z, x, y, source, owning_pack, cache_control, expires, data)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(tile_id, owning_pack) DO UPDATE SET
		cache_control = excluded.cache_control,
		expires = excluded.expires,
		data = excluded.data`

	k := rec.Key
	_, err := s.db.ExecContext(ctx, query, k.String(), k.Z, k.X, k.Y, k.Source,
		rec.OwningPack, rec.CacheControl, rec.Expires, rec.Data)
	if err != nil {
		s.logger.Error("sqlite tile put failed", "key", k.String(), "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) GetTile(ctx context.Context, key TileKey) (TileRecord, bool, error) {
	query := `SELECT owning_pack, cache_control, expires, data
	FROM tiles
	WHERE tile_id = ?
	LIMIT 1`

	rec := TileRecord{Key: key}
	err := s.db.QueryRowContext(ctx, query, key.String()).
		Scan(&rec.OwningPack, &rec.CacheControl, &rec.Expires, &rec.Data)
	if err != nil {
		if err == sql.ErrNoRows {
			return TileRecord{}, false, nil
		}
		s.logger.Error("sqlite tile get failed", "key", key.String(), "error", err)
		return TileRecord{}, false, err
	}

	return rec, true, nil
}

func (s *SQLiteStore) DeleteTilesByPack(ctx context.Context, pack string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tiles WHERE owning_pack = ?`, pack)
	if err != nil {
		s.logger.Error("sqlite tiles delete failed", "pack", pack, "error", err)
	}
	return err
}

func (s *SQLiteStore) DeleteAllTiles(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tiles`)
	return err
}

func (s *SQLiteStore) CountTilesByPack(ctx context.Context, pack string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tiles WHERE owning_pack = ?`, pack).Scan(&n)
	if err != nil {
		s.logger.Error("sqlite tile count failed", "pack", pack, "error", err)
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) PutPack(ctx context.Context, rec PackRecord) error {
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return fmt.Errorf("marshal pack sources: %w", err)
	}
	bounds, err := json.Marshal(rec.Bounds)
	if err != nil {
		return fmt.Errorf("marshal pack bounds: %w", err)
	}

	query := `INSERT INTO packs (name, sources, bounds, min_zoom, max_zoom, size_bytes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		sources = excluded.sources,
		bounds = excluded.bounds,
		min_zoom = excluded.min_zoom,
		max_zoom = excluded.max_zoom,
		size_bytes = excluded.size_bytes`

	_, err = s.db.ExecContext(ctx, query, rec.Name, sources, bounds,
		rec.MinZoom, rec.MaxZoom, rec.SizeBytes, rec.CreatedAt)
	if err != nil {
		s.logger.Error("sqlite pack put failed", "name", rec.Name, "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) GetPack(ctx context.Context, name string) (PackRecord, bool, error) {
	query := `SELECT name, sources, bounds, min_zoom, max_zoom, size_bytes, created_at
	FROM packs
	WHERE name = ?`

	rec, err := scanPack(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return PackRecord{}, false, nil
		}
		s.logger.Error("sqlite pack get failed", "name", name, "error", err)
		return PackRecord{}, false, err
	}

	return rec, true, nil
}

func (s *SQLiteStore) ListPacks(ctx context.Context) ([]PackRecord, error) {
	query := `SELECT name, sources, bounds, min_zoom, max_zoom, size_bytes, created_at
	FROM packs`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []PackRecord
	for rows.Next() {
		rec, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, rec)
	}

	return packs, rows.Err()
}

func (s *SQLiteStore) DeletePack(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM packs WHERE name = ?`, name)
	return err
}

func (s *SQLiteStore) DeleteAllPacks(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM packs`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPack(row rowScanner) (PackRecord, error) {
	var rec PackRecord
	var sources, bounds []byte

	err := row.Scan(&rec.Name, &sources, &bounds, &rec.MinZoom, &rec.MaxZoom, &rec.SizeBytes, &rec.CreatedAt)
	if err != nil {
		return PackRecord{}, err
	}

	if err := json.Unmarshal(sources, &rec.Sources); err != nil {
		return PackRecord{}, fmt.Errorf("unmarshal pack sources: %w", err)
	}
	if err := json.Unmarshal(bounds, &rec.Bounds); err != nil {
		return PackRecord{}, fmt.Errorf("unmarshal pack bounds: %w", err)
	}

	return rec, nil
}
