package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	awss3 "github.com/aws/aws-sdk-go/service/s3"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/s3"
)

// memoryObjectAPI мок S3 API с хранением объектов в памяти
type memoryObjectAPI struct {
	objects map[string][]byte
}

func (m *memoryObjectAPI) PutObjectWithContext(_ aws.Context, input *awss3.PutObjectInput, _ ...request.Option) (*awss3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.StringValue(input.Key)] = body
	return &awss3.PutObjectOutput{}, nil
}

func (m *memoryObjectAPI) GetObjectWithContext(_ aws.Context, input *awss3.GetObjectInput, _ ...request.Option) (*awss3.GetObjectOutput, error) {
	body, ok := m.objects[aws.StringValue(input.Key)]
	if !ok {
		return nil, awserr.New(awss3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (m *memoryObjectAPI) DeleteObjectWithContext(_ aws.Context, input *awss3.DeleteObjectInput, _ ...request.Option) (*awss3.DeleteObjectOutput, error) {
	delete(m.objects, aws.StringValue(input.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := Open(BackendFile, t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия файлового кэша: %v", err)
	}
	sqliteStore, err := Open(BackendSQLite, t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия SQLite кэша: %v", err)
	}
	s3Store := NewS3Store(s3.NewClientWithAPI(&memoryObjectAPI{objects: map[string][]byte{}}, "bucket"), "jamplayer/")

	stores := map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
		"s3":     s3Store,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Ожидалась ErrNotFound, получено: %v", err)
			}

			if err := store.Put(ctx, "cached_tracks", []byte(`[1]`)); err != nil {
				t.Fatalf("Ошибка записи: %v", err)
			}
			if err := store.Put(ctx, "cached_tracks", []byte(`[2]`)); err != nil {
				t.Fatalf("Ошибка перезаписи: %v", err)
			}

			value, err := store.Get(ctx, "cached_tracks")
			if err != nil {
				t.Fatalf("Ошибка чтения: %v", err)
			}
			if string(value) != `[2]` {
				t.Errorf("Ожидалось [2], получено %s", value)
			}

			if err := store.Delete(ctx, "cached_tracks"); err != nil {
				t.Fatalf("Ошибка удаления: %v", err)
			}
			if _, err := store.Get(ctx, "cached_tracks"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Ожидалась ErrNotFound после удаления, получено: %v", err)
			}
			// Повторное удаление не должно падать
			if err := store.Delete(ctx, "cached_tracks"); err != nil {
				t.Errorf("Повторное удаление вернуло ошибку: %v", err)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Error("Ожидалась ошибка для неизвестного бэкенда")
	}
}

func TestTrackCacheMergeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия кэша: %v", err)
	}
	cache := NewTrackCache(store, "")

	track := data.Track{ID: "1", Name: "Song", Audio: data.URIRef("https://example.com/1.mp3")}

	if _, err := cache.Merge(ctx, []data.Track{track}); err != nil {
		t.Fatalf("Ошибка слияния: %v", err)
	}
	merged, err := cache.Merge(ctx, []data.Track{track})
	if err != nil {
		t.Fatalf("Ошибка слияния: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("Ожидалась одна запись, получено %d", len(merged))
	}

	loaded, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения кэша: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "1" {
		t.Errorf("Ожидался один трек с ID 1, получено %+v", loaded)
	}
	if loaded[0].Audio.URI != "https://example.com/1.mp3" {
		t.Errorf("Ссылка на аудио должна пережить кэширование, получено %q", loaded[0].Audio.URI)
	}
}

func TestTrackCacheRecoversFromMalformedBlob(t *testing.T) {
	ctx := context.Background()
	store, err := OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия кэша: %v", err)
	}
	if err := store.Put(ctx, DefaultKey, []byte(`{not json`)); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}

	cache := NewTrackCache(store, DefaultKey)
	tracks, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Поврежденный кэш не должен давать ошибку: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("Ожидался пустой список, получено %d", len(tracks))
	}

	// Слияние поверх поврежденного блоба перезаписывает его корректными данными
	merged, err := cache.Merge(ctx, []data.Track{{ID: "a"}})
	if err != nil {
		t.Fatalf("Ошибка слияния: %v", err)
	}
	if len(merged) != 1 {
		t.Errorf("Ожидалась одна запись, получено %d", len(merged))
	}
}

func TestTrackCacheClear(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия кэша: %v", err)
	}
	defer store.Close()

	cache := NewTrackCache(store, DefaultKey)
	if _, err := cache.Merge(ctx, []data.Track{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("Ошибка слияния: %v", err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Ошибка очистки: %v", err)
	}

	tracks, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения кэша: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("После очистки ожидался пустой список, получено %d", len(tracks))
	}
}

func TestCopyBetweenStores(t *testing.T) {
	ctx := context.Background()
	stores := openStores(t)

	if err := stores["file"].Put(ctx, DefaultKey, []byte(`[]`)); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}
	if err := Copy(ctx, stores["file"], stores["s3"], DefaultKey); err != nil {
		t.Fatalf("Ошибка копирования: %v", err)
	}
	value, err := stores["s3"].Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Ошибка чтения из S3: %v", err)
	}
	if string(value) != `[]` {
		t.Errorf("Ожидалось [], получено %s", value)
	}

	if err := Copy(ctx, stores["sqlite"], stores["file"], "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ожидалась ErrNotFound при копировании отсутствующего ключа, получено: %v", err)
	}
}
