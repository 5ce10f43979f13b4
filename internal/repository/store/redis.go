package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps tiles as hashes and pack records as JSON strings. Tile
// hashes are keyed per owning pack, so two packs downloading the same
// coordinates hold independent copies. Each pack owns a set of its tile ids
// (standing in for the owning_pack index, so cascading deletes never scan
// the whole keyspace) and each tile id owns a set of the packs holding it,
// which serves the pack-agnostic lookup path.
type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func tileKeyFor(pack, id string) string {
	return "tile:" + pack + ":" + id
}

func packKeyFor(name string) string {
	return "pack:" + name
}

func packTilesKeyFor(name string) string {
	return "pack_tiles:" + name
}

func tileOwnersKeyFor(id string) string {
	return "tile_owners:" + id
}

func (s *RedisStore) PutTile(ctx context.Context, rec TileRecord) error {
	id := rec.Key.String()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, tileKeyFor(rec.OwningPack, id), map[string]any{
		"owning_pack":   rec.OwningPack,
		"cache_control": rec.CacheControl,
		"expires":       rec.Expires,
		"data":          rec.Data,
	})
	pipe.SAdd(ctx, packTilesKeyFor(rec.OwningPack), id)
	pipe.SAdd(ctx, tileOwnersKeyFor(id), rec.OwningPack)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis tile put error: %w", err)
	}
	return nil
}

func (s *RedisStore) GetTile(ctx context.Context, key TileKey) (TileRecord, bool, error) {
	id := key.String()

	owners, err := s.client.SMembers(ctx, tileOwnersKeyFor(id)).Result()
	if err != nil {
		return TileRecord{}, false, fmt.Errorf("redis tile owners error: %w", err)
	}

	for _, pack := range owners {
		fields, err := s.client.HGetAll(ctx, tileKeyFor(pack, id)).Result()
		if err != nil {
			return TileRecord{}, false, fmt.Errorf("redis tile get error: %w", err)
		}
		if len(fields) == 0 {
			continue
		}

		return TileRecord{
			Key:          key,
			OwningPack:   fields["owning_pack"],
			CacheControl: fields["cache_control"],
			Expires:      fields["expires"],
			Data:         []byte(fields["data"]),
		}, true, nil
	}

	return TileRecord{}, false, nil
}

func (s *RedisStore) DeleteTilesByPack(ctx context.Context, pack string) error {
	ids, err := s.client.SMembers(ctx, packTilesKeyFor(pack)).Result()
	if err != nil {
		return fmt.Errorf("redis pack tiles members error: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, tileKeyFor(pack, id))
		pipe.SRem(ctx, tileOwnersKeyFor(id), pack)
	}
	pipe.Del(ctx, packTilesKeyFor(pack))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pack tiles delete error: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteAllTiles(ctx context.Context) error {
	for _, pattern := range []string{"tile:*", "pack_tiles:*", "tile_owners:*"} {
		if err := s.deleteByPattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) CountTilesByPack(ctx context.Context, pack string) (int, error) {
	n, err := s.client.SCard(ctx, packTilesKeyFor(pack)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis pack tiles count error: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) PutPack(ctx context.Context, rec PackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pack record: %w", err)
	}

	if err := s.client.Set(ctx, packKeyFor(rec.Name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis pack put error: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPack(ctx context.Context, name string) (PackRecord, bool, error) {
	data, err := s.client.Get(ctx, packKeyFor(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return PackRecord{}, false, nil
		}
		return PackRecord{}, false, fmt.Errorf("redis pack get error: %w", err)
	}

	var rec PackRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PackRecord{}, false, fmt.Errorf("unmarshal pack record: %w", err)
	}
	return rec, true, nil
}

func (s *RedisStore) ListPacks(ctx context.Context) ([]PackRecord, error) {
	var packs []PackRecord

	iter := s.client.Scan(ctx, 0, "pack:*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("redis pack get error: %w", err)
		}

		var rec PackRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal pack record: %w", err)
		}
		packs = append(packs, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis pack scan error: %w", err)
	}

	return packs, nil
}

func (s *RedisStore) DeletePack(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, packKeyFor(name)).Err(); err != nil {
		return fmt.Errorf("redis pack delete error: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteAllPacks(ctx context.Context) error {
	return s.deleteByPattern(ctx, "pack:*")
}

func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete error: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan error: %w", err)
	}
	return nil
}
