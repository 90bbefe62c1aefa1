package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hazadus/go-jamplayer/internal/cache"
	"github.com/hazadus/go-jamplayer/internal/catalog/local"
	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/data"
)

type fakeRemote struct {
	tracks []data.Track
	err    error
	calls  int
}

func (f *fakeRemote) Tracks(_ context.Context, _ remote.Query) ([]data.Track, error) {
	f.calls++
	return f.tracks, f.err
}

type fakeLibrary struct {
	tracks []data.Track
	err    error
}

func (f *fakeLibrary) Scan(context.Context) ([]data.Track, error) {
	return f.tracks, f.err
}

func remoteTrack(id, name string) data.Track {
	return data.Track{
		ID:         id,
		Name:       name,
		ArtistName: "Artist",
		Audio:      data.URIRef(fmt.Sprintf("https://example.com/%s.mp3", id)),
		Source:     data.SourceRemote,
	}
}

func newTrackCache(t *testing.T) *cache.TrackCache {
	t.Helper()
	store, err := cache.Open("file", t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия кэша: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return cache.NewTrackCache(store, "")
}

func TestSearchMergesIntoCache(t *testing.T) {
	tc := newTrackCache(t)
	r := &fakeRemote{tracks: []data.Track{remoteTrack("1", "Sunrise"), remoteTrack("2", "Sunset")}}
	svc := NewService(r, nil, tc)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.Search(ctx, remote.Query{})
		if err != nil {
			t.Fatalf("Ошибка поиска: %v", err)
		}
		if res.FromCache || len(res.Tracks) != 2 {
			t.Fatalf("Ожидались 2 трека из каталога, получено %+v", res)
		}
	}

	cached, err := svc.Cached(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения кэша: %v", err)
	}
	if len(cached) != 2 {
		t.Errorf("Повторный поиск не должен дублировать кэш, получено %d", len(cached))
	}
}

func TestSearchFallsBackToCache(t *testing.T) {
	tc := newTrackCache(t)
	ctx := context.Background()
	if _, err := tc.Merge(ctx, []data.Track{remoteTrack("1", "Sunrise"), remoteTrack("2", "Midnight")}); err != nil {
		t.Fatalf("Ошибка заполнения кэша: %v", err)
	}

	r := &fakeRemote{err: remote.ErrRateLimited}
	svc := NewService(r, nil, tc)

	res, err := svc.Search(ctx, remote.Query{Search: "sun"})
	if err != nil {
		t.Fatalf("Ожидался результат из кэша, получено: %v", err)
	}
	if !res.FromCache {
		t.Error("Результат должен быть помечен как взятый из кэша")
	}
	if !errors.Is(res.Cause, remote.ErrRateLimited) {
		t.Errorf("Ожидалась причина ErrRateLimited, получено %v", res.Cause)
	}
	if len(res.Tracks) != 1 || res.Tracks[0].ID != "1" {
		t.Errorf("Ожидался отфильтрованный трек 1, получено %+v", res.Tracks)
	}
}

func TestSearchWithoutCacheReturnsError(t *testing.T) {
	svc := NewService(&fakeRemote{err: remote.ErrUnauthorized}, nil, nil)
	if _, err := svc.Search(context.Background(), remote.Query{}); !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("Ожидалась ErrUnauthorized, получено: %v", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewService(&fakeRemote{err: context.Canceled}, nil, newTrackCache(t))
	if _, err := svc.Search(ctx, remote.Query{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Ожидалась отмена, получено: %v", err)
	}
}

func TestLocal(t *testing.T) {
	lib := &fakeLibrary{tracks: []data.Track{{ID: "x", Source: data.SourceLocal}}}
	tracks, err := NewService(nil, lib, nil).Local(context.Background())
	if err != nil || len(tracks) != 1 {
		t.Fatalf("Ожидался один локальный трек, получено %v, %v", tracks, err)
	}

	tracks, err = NewService(nil, nil, nil).Local(context.Background())
	if err == nil || len(tracks) != 0 {
		t.Error("Без медиатеки ожидалась ошибка и пустой список")
	}
}

func TestClearCache(t *testing.T) {
	tc := newTrackCache(t)
	ctx := context.Background()
	if _, err := tc.Merge(ctx, []data.Track{remoteTrack("1", "A")}); err != nil {
		t.Fatalf("Ошибка заполнения кэша: %v", err)
	}

	svc := NewService(nil, nil, tc)
	if err := svc.ClearCache(ctx); err != nil {
		t.Fatalf("Ошибка очистки: %v", err)
	}
	cached, _ := svc.Cached(ctx)
	if len(cached) != 0 {
		t.Errorf("Кэш должен быть пуст, получено %d", len(cached))
	}
}

func TestNotice(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("обертка: %w", remote.ErrUnauthorized), "client_id"},
		{remote.ErrRateLimited, "Слишком много"},
		{local.ErrPermissionDenied, "Нет доступа"},
		{&remote.APIError{StatusCode: 404}, "404"},
		{errors.New("dial tcp: connection refused"), "Нет соединения"},
	}
	for _, tt := range tests {
		if got := Notice(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("Notice(%v) = %q, ожидалось содержание %q", tt.err, got, tt.want)
		}
	}
}
