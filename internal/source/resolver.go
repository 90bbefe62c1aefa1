// Package source разрешает ссылки на аудио в абсолютные URI для движка
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hazadus/go-jamplayer/internal/data"
)

// Ошибки разрешения ссылок
var (
	ErrNoReference        = errors.New("ссылка на аудио отсутствует")
	ErrUnsupportedLocator = errors.New("неподдерживаемый тип ссылки на аудио")
)

// StreamResolver получает прямую ссылку на аудиопоток по ID видео
type StreamResolver interface {
	StreamURL(ctx context.Context, videoID string) (string, error)
}

// Resolver превращает AudioRef в URI, который понимает аудиодвижок
type Resolver struct {
	youtube StreamResolver
}

// NewResolver создает резолвер. Если yt равен nil, ссылки youtube не поддерживаются.
func NewResolver(yt StreamResolver) *Resolver {
	return &Resolver{youtube: yt}
}

// Resolve возвращает URI для ссылки на аудио.
// Проверка корректности URI остается за вызывающим.
func (r *Resolver) Resolve(ctx context.Context, ref data.AudioRef) (string, error) {
	if ref.IsZero() {
		return "", ErrNoReference
	}
	if ref.Locator == nil {
		return strings.TrimSpace(ref.URI), nil
	}

	loc := ref.Locator
	switch loc.Kind {
	case data.LocatorURI, "":
		if strings.TrimSpace(loc.URI) == "" {
			return "", fmt.Errorf("%w: пустой uri", ErrUnsupportedLocator)
		}
		return strings.TrimSpace(loc.URI), nil
	case data.LocatorFile:
		return FileURI(loc.Path)
	case data.LocatorYouTube:
		if r.youtube == nil {
			return "", fmt.Errorf("%w: youtube отключен", ErrUnsupportedLocator)
		}
		if loc.ID == "" {
			return "", fmt.Errorf("%w: пустой ID видео", ErrUnsupportedLocator)
		}
		u, err := r.youtube.StreamURL(ctx, loc.ID)
		if err != nil {
			return "", fmt.Errorf("ошибка получения потока youtube: %w", err)
		}
		return u, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocator, loc.Kind)
	}
}

// FileURI строит file:// URI по пути к файлу
func FileURI(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: пустой путь", ErrUnsupportedLocator)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("ошибка получения абсолютного пути: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
