package store

import (
	"context"
	"sync"
)

// MemoryStore keeps both collections in process memory. Used for tests and
// throwaway setups where durability does not matter. Tiles are held per
// owning pack under each tile id, so the same coordinates downloaded for two
// packs coexist.
type MemoryStore struct {
	mu    sync.Mutex
	tiles map[string]map[string]TileRecord
	packs map[string]PackRecord
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tiles: make(map[string]map[string]TileRecord),
		packs: make(map[string]PackRecord),
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) PutTile(_ context.Context, rec TileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.Key.String()
	byPack, ok := s.tiles[id]
	if !ok {
		byPack = make(map[string]TileRecord)
		s.tiles[id] = byPack
	}
	byPack[rec.OwningPack] = rec

	return nil
}

func (s *MemoryStore) GetTile(_ context.Context, key TileKey) (TileRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tiles[key.String()] {
		return rec, true, nil
	}
	return TileRecord{}, false, nil
}

func (s *MemoryStore) DeleteTilesByPack(_ context.Context, pack string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, byPack := range s.tiles {
		delete(byPack, pack)
		if len(byPack) == 0 {
			delete(s.tiles, id)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteAllTiles(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = make(map[string]map[string]TileRecord)
	return nil
}

func (s *MemoryStore) CountTilesByPack(_ context.Context, pack string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, byPack := range s.tiles {
		if _, ok := byPack[pack]; ok {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) PutPack(_ context.Context, rec PackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packs[rec.Name] = rec
	return nil
}

func (s *MemoryStore) GetPack(_ context.Context, name string) (PackRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.packs[name]
	return rec, ok, nil
}

func (s *MemoryStore) ListPacks(_ context.Context) ([]PackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	packs := make([]PackRecord, 0, len(s.packs))
	for _, rec := range s.packs {
		packs = append(packs, rec)
	}
	return packs, nil
}

func (s *MemoryStore) DeletePack(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.packs, name)
	return nil
}

func (s *MemoryStore) DeleteAllPacks(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packs = make(map[string]PackRecord)
	return nil
}
