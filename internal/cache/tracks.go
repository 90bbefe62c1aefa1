package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/logs"
)

var log = logging.Logger(logs.Cache)

// DefaultKey - ключ, под которым хранится список треков
const DefaultKey = "cached_tracks"

// TrackCache хранит ранее загруженные треки одним JSON-массивом
type TrackCache struct {
	store Store
	key   string
	mu    sync.Mutex
}

// NewTrackCache создает кэш треков поверх хранилища
func NewTrackCache(store Store, key string) *TrackCache {
	if key == "" {
		key = DefaultKey
	}
	return &TrackCache{store: store, key: key}
}

// Store возвращает хранилище кэша
func (c *TrackCache) Store() Store {
	return c.store
}

// Key возвращает ключ кэша
func (c *TrackCache) Key() string {
	return c.key
}

// Load возвращает треки из кэша.
// Отсутствующий или поврежденный блоб дает пустой список без ошибки.
func (c *TrackCache) Load(ctx context.Context) ([]data.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *TrackCache) load(ctx context.Context) ([]data.Track, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []data.Track{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения кэша треков: %w", err)
	}
	if len(raw) == 0 {
		return []data.Track{}, nil
	}

	var tracks []data.Track
	if err := json.Unmarshal(raw, &tracks); err != nil {
		log.Warnf("кэш треков поврежден, используем пустой список: %v", err)
		return []data.Track{}, nil
	}
	if tracks == nil {
		tracks = []data.Track{}
	}
	return tracks, nil
}

// Merge добавляет треки в кэш без дубликатов по ID и возвращает итоговый список
func (c *TrackCache) Merge(ctx context.Context, tracks []data.Track) ([]data.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	merged := data.MergeTracks(existing, tracks)
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации кэша треков: %w", err)
	}
	if err := c.store.Put(ctx, c.key, raw); err != nil {
		return nil, fmt.Errorf("ошибка сохранения кэша треков: %w", err)
	}

	log.Debugf("в кэше %d треков (добавлено %d)", len(merged), len(merged)-len(existing))
	return merged, nil
}

// Clear очищает кэш
func (c *TrackCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("ошибка очистки кэша треков: %w", err)
	}
	return nil
}
