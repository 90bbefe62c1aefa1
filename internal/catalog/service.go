// Package catalog объединяет онлайн-каталог, локальную медиатеку и кэш треков
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/cache"
	"github.com/hazadus/go-jamplayer/internal/catalog/local"
	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/logs"
)

var log = logging.Logger(logs.Catalog)

// Remote - источник треков онлайн-каталога
type Remote interface {
	Tracks(ctx context.Context, q remote.Query) ([]data.Track, error)
}

// Library - локальная медиатека
type Library interface {
	Scan(ctx context.Context) ([]data.Track, error)
}

// Result - страница треков и сведения о том, откуда она взята
type Result struct {
	Tracks    []data.Track
	FromCache bool  // Онлайн-каталог недоступен, треки взяты из кэша
	Cause     error // Почему пришлось использовать кэш
}

// Service выдает треки экранам и командам
type Service struct {
	remote  Remote
	library Library
	cache   *cache.TrackCache
}

// NewService создает сервис. Любой из источников может быть nil.
func NewService(r Remote, lib Library, tc *cache.TrackCache) *Service {
	return &Service{remote: r, library: lib, cache: tc}
}

// Search запрашивает онлайн-каталог и дополняет кэш.
// При ошибке каталога возвращает подходящие треки из кэша и причину в Result.Cause.
func (s *Service) Search(ctx context.Context, q remote.Query) (Result, error) {
	if s.remote == nil {
		return s.fallback(ctx, q, errors.New("онлайн-каталог не настроен"))
	}

	tracks, err := s.remote.Tracks(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Warnw("онлайн-каталог недоступен, используем кэш", "error", err)
		return s.fallback(ctx, q, err)
	}

	if s.cache != nil {
		if _, err := s.cache.Merge(ctx, tracks); err != nil {
			log.Warnw("не удалось обновить кэш", "error", err)
		}
	}
	return Result{Tracks: tracks}, nil
}

func (s *Service) fallback(ctx context.Context, q remote.Query, cause error) (Result, error) {
	if s.cache == nil {
		return Result{}, cause
	}

	cached, err := s.cache.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%v; кэш тоже недоступен: %w", cause, err)
	}

	return Result{
		Tracks:    FilterTracks(cached, q.Search),
		FromCache: true,
		Cause:     cause,
	}, nil
}

// Local сканирует локальную медиатеку
func (s *Service) Local(ctx context.Context) ([]data.Track, error) {
	if s.library == nil {
		return []data.Track{}, errors.New("локальная медиатека не настроена")
	}
	return s.library.Scan(ctx)
}

// Cached возвращает треки из кэша
func (s *Service) Cached(ctx context.Context) ([]data.Track, error) {
	if s.cache == nil {
		return []data.Track{}, nil
	}
	return s.cache.Load(ctx)
}

// ClearCache очищает кэш треков
func (s *Service) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

// FilterTracks оставляет треки, в названии, исполнителе или альбоме которых есть term
func FilterTracks(tracks []data.Track, term string) []data.Track {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tracks
	}

	out := make([]data.Track, 0, len(tracks))
	for _, t := range tracks {
		haystack := strings.ToLower(t.Name + " " + t.ArtistName + " " + t.AlbumName)
		if strings.Contains(haystack, term) {
			out = append(out, t)
		}
	}
	return out
}

// Notice возвращает понятное пользователю сообщение об ошибке каталога
func Notice(err error) string {
	var apiErr *remote.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, remote.ErrNoClientID):
		return "Не задан client_id Jamendo: укажите jamendo.client_id в конфигурации"
	case errors.Is(err, remote.ErrUnauthorized):
		return "Jamendo отклонил client_id: проверьте настройки"
	case errors.Is(err, remote.ErrRateLimited):
		return "Слишком много запросов к Jamendo, попробуйте позже"
	case errors.Is(err, local.ErrPermissionDenied):
		return "Нет доступа к медиатеке: проверьте права на директорию"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Jamendo вернул ошибку %d", apiErr.StatusCode)
	default:
		return "Нет соединения с каталогом, показаны сохраненные треки"
	}
}
