// Package local перечисляет аудиофайлы локальной медиатеки
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/audio"
	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/logs"
	"github.com/hazadus/go-jamplayer/internal/metadata"
)

var log = logging.Logger(logs.Library)

const (
	// DefaultMaxTracks - сколько файлов берется из медиатеки по умолчанию
	DefaultMaxTracks = 500
	defaultWorkers   = 4
)

// ErrPermissionDenied - нет доступа к директории медиатеки
var ErrPermissionDenied = errors.New("нет доступа к медиатеке")

// idNamespace - пространство имен для стабильных ID локальных треков
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("jamplayer:local"))

// ScanError описывает файл, который не удалось прочитать
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("ошибка сканирования %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Options настраивает медиатеку
type Options struct {
	Dir       string
	MaxTracks int
	Workers   int
}

// Library - локальная медиатека в одной директории
type Library struct {
	dir       string
	maxTracks int
	workers   int
	extractor *metadata.Extractor
}

// New создает медиатеку
func New(opts Options) *Library {
	l := &Library{
		dir:       opts.Dir,
		maxTracks: opts.MaxTracks,
		workers:   opts.Workers,
		extractor: metadata.NewExtractor(),
	}
	if l.maxTracks <= 0 {
		l.maxTracks = DefaultMaxTracks
	}
	if l.workers <= 0 {
		l.workers = defaultWorkers
	}
	return l
}

// Dir возвращает директорию медиатеки
func (l *Library) Dir() string {
	return l.dir
}

// TrackID возвращает стабильный ID трека по пути к файлу
func TrackID(path string) string {
	return uuid.NewSHA1(idNamespace, []byte(filepath.Clean(path))).String()
}

// Scan перечисляет поддерживаемые аудиофайлы, не более maxTracks.
// Если доступа к директории нет, возвращается пустой список и ErrPermissionDenied.
func (l *Library) Scan(ctx context.Context) ([]data.Track, error) {
	info, err := os.Stat(l.dir)
	switch {
	case errors.Is(err, fs.ErrPermission):
		log.Warnw("нет доступа к медиатеке", "dir", l.dir)
		return []data.Track{}, fmt.Errorf("%w: %s", ErrPermissionDenied, l.dir)
	case err != nil:
		return []data.Track{}, fmt.Errorf("ошибка открытия медиатеки: %w", err)
	case !info.IsDir():
		return []data.Track{}, fmt.Errorf("медиатека %s не является директорией", l.dir)
	}

	paths, err := l.discover(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return []data.Track{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return []data.Track{}, err
	}

	tracks := l.describe(ctx, paths)
	if err := ctx.Err(); err != nil {
		return []data.Track{}, err
	}

	log.Infow("медиатека просканирована", "dir", l.dir, "tracks", len(tracks))
	return tracks, nil
}

// discover обходит директорию и собирает пути поддерживаемых файлов
func (l *Library) discover(ctx context.Context) ([]string, error) {
	var paths []string
	errLimit := errors.New("limit")

	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == l.dir {
				return err
			}
			// Недоступные поддиректории пропускаем
			log.Warnw("пропуск недоступного пути", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !audio.IsSupported(p) {
			return nil
		}
		paths = append(paths, p)
		if len(paths) >= l.maxTracks {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// describe читает метаданные файлов пулом воркеров, сохраняя порядок путей
func (l *Library) describe(ctx context.Context, paths []string) []data.Track {
	results := make([]*data.Track, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				t, err := l.TrackFromFile(paths[idx])
				if err != nil {
					log.Debugw("файл пропущен", "error", err)
					continue
				}
				results[idx] = &t
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	tracks := make([]data.Track, 0, len(paths))
	for _, t := range results {
		if t != nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks
}

// TrackFromFile строит трек по файлу. Длительность хранится в миллисекундах.
func (l *Library) TrackFromFile(path string) (data.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return data.Track{}, &ScanError{Path: path, Err: err}
	}

	info, err := l.extractor.Describe(abs)
	if err != nil {
		return data.Track{}, &ScanError{Path: abs, Err: err}
	}

	t, ok := data.NormalizeTrack(data.Track{
		ID:         TrackID(abs),
		Name:       info.Title,
		ArtistName: info.Artist,
		AlbumName:  info.Album,
		Duration:   float64(info.Duration.Milliseconds()),
		Audio:      data.FileRef(abs),
		Source:     data.SourceLocal,
	})
	if !ok {
		return data.Track{}, &ScanError{Path: abs, Err: errors.New("нет ссылки на аудио")}
	}
	return t, nil
}
