// Package metadata извлекает теги и длительность из локальных аудиофайлов
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/hazadus/go-jamplayer/internal/audio"
	"github.com/hazadus/go-jamplayer/internal/data"
)

// Tags - теги трека
type Tags struct {
	Artist string
	Title  string
	Album  string
}

// Info - теги и сведения о файле
type Info struct {
	Tags
	Size     int64
	Duration time.Duration
}

// Extractor извлекает метаданные из аудиофайлов
type Extractor struct{}

// NewExtractor создает экстрактор
func NewExtractor() *Extractor {
	return &Extractor{}
}

// TagsFromReader читает теги; при ошибке разбирает имя файла
func (e *Extractor) TagsFromReader(r io.ReadSeeker, source string) Tags {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return TagsFromName(source)
	}

	m, err := tag.ReadFrom(r)
	if err != nil {
		return TagsFromName(source)
	}

	fallback := TagsFromName(source)
	t := Tags{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if t.Title == "" {
		t.Title = fallback.Title
	}
	if t.Artist == "" {
		t.Artist = fallback.Artist
	}
	return t
}

// TagsFromFile читает теги файла
func (e *Extractor) TagsFromFile(filePath string) Tags {
	f, err := os.Open(filePath)
	if err != nil {
		return TagsFromName(filePath)
	}
	defer f.Close()

	return e.TagsFromReader(f, filePath)
}

// Duration декодирует файл и вычисляет длительность
func (e *Extractor) Duration(filePath string) (time.Duration, error) {
	format, err := audio.DetectFormat(filePath, "")
	if err != nil {
		return 0, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	// Decode забирает файл: его закрывает декодер
	streamer, bf, err := audio.Decode(f, format)
	if err != nil {
		f.Close()
		return 0, err
	}
	defer streamer.Close()

	return bf.SampleRate.D(streamer.Len()), nil
}

// Describe возвращает теги, размер и длительность файла.
// Если длительность не удалось вычислить, она остается нулевой.
func (e *Extractor) Describe(filePath string) (Info, error) {
	st, err := os.Stat(filePath)
	if err != nil {
		return Info{}, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	info := Info{
		Tags: e.TagsFromFile(filePath),
		Size: st.Size(),
	}
	if d, err := e.Duration(filePath); err == nil {
		info.Duration = d
	}
	return info, nil
}

// TagsFromName разбирает имя файла в формате "Artist - Title"
func TagsFromName(source string) Tags {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	parts := strings.Split(name, " - ")
	if len(parts) >= 2 {
		return Tags{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	return Tags{
		Artist: data.DefaultArtist,
		Title:  strings.TrimSpace(name),
	}
}
