package local

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hazadus/go-jamplayer/internal/audio"
	"github.com/hazadus/go-jamplayer/internal/data"
)

// DefaultDebounce - пауза после последнего изменения перед пересканированием
const DefaultDebounce = 500 * time.Millisecond

// Watch следит за медиатекой и пересканирует ее после изменений.
// onChange вызывается из горутины наблюдателя. Блокирует до отмены ctx.
func (l *Library) Watch(ctx context.Context, debounce time.Duration, onChange func([]data.Track, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	defer watcher.Close()

	if err := l.addDirs(watcher, l.dir); err != nil {
		return err
	}

	// Каждое событие откладывает пересканирование на debounce
	var rescan <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				// Новые поддиректории тоже нужно отслеживать
				_ = l.addDirs(watcher, ev.Name)
			}
			if !relevant(ev) {
				continue
			}
			log.Debugw("изменение в медиатеке", "path", ev.Name, "op", ev.Op.String())
			rescan = time.After(debounce)

		case <-rescan:
			rescan = nil
			tracks, err := l.Scan(ctx)
			onChange(tracks, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("ошибка наблюдателя", "error", err)
		}
	}
}

// relevant отбрасывает события, не влияющие на список треков
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// Удаленной могла быть целая директория
		return true
	}
	return audio.IsSupported(ev.Name) || filepath.Ext(ev.Name) == ""
}

// addDirs добавляет директорию и все ее поддиректории в наблюдатель
func (l *Library) addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fmt.Errorf("ошибка наблюдения за %s: %w", p, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(p); err != nil {
			log.Warnw("не удалось отслеживать директорию", "path", p, "error", err)
		}
		return nil
	})
}
