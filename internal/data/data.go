// Package data содержит модель треков и списков треков
package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Source указывает, откуда пришел трек
type Source string

const (
	// SourceRemote - трек из онлайн-каталога
	SourceRemote Source = "remote"
	// SourceLocal - трек из локальной медиатеки
	SourceLocal Source = "local"
)

// Значения по умолчанию для пустых полей трека
const (
	DefaultName   = "Unknown Track"
	DefaultArtist = "Unknown Artist"
)

// LocatorKind определяет тип структурированной ссылки на аудио
type LocatorKind string

const (
	LocatorURI     LocatorKind = "uri"
	LocatorFile    LocatorKind = "file"
	LocatorYouTube LocatorKind = "youtube"
)

// Locator - структурированная ссылка на аудио
type Locator struct {
	Kind LocatorKind `json:"kind,omitempty"`
	URI  string      `json:"uri,omitempty"`
	Path string      `json:"path,omitempty"`
	ID   string      `json:"id,omitempty"`
}

// AudioRef - ссылка на аудио: либо строка с URI, либо Locator
type AudioRef struct {
	URI     string
	Locator *Locator
}

// URIRef создает ссылку из строки URI
func URIRef(uri string) AudioRef {
	return AudioRef{URI: uri}
}

// FileRef создает ссылку на локальный файл
func FileRef(path string) AudioRef {
	return AudioRef{Locator: &Locator{Kind: LocatorFile, Path: path}}
}

// IsZero возвращает true, если ссылка на аудио отсутствует
func (r AudioRef) IsZero() bool {
	if strings.TrimSpace(r.URI) != "" {
		return false
	}
	if r.Locator == nil {
		return true
	}
	return strings.TrimSpace(r.Locator.URI) == "" &&
		strings.TrimSpace(r.Locator.Path) == "" &&
		strings.TrimSpace(r.Locator.ID) == ""
}

// String возвращает текстовое представление ссылки для логов
func (r AudioRef) String() string {
	if r.URI != "" {
		return r.URI
	}
	if r.Locator == nil {
		return ""
	}
	switch {
	case r.Locator.URI != "":
		return r.Locator.URI
	case r.Locator.Path != "":
		return string(r.Locator.Kind) + ":" + r.Locator.Path
	default:
		return string(r.Locator.Kind) + ":" + r.Locator.ID
	}
}

// MarshalJSON сериализует голый URI строкой, а Locator - объектом
func (r AudioRef) MarshalJSON() ([]byte, error) {
	if r.Locator != nil {
		return json.Marshal(r.Locator)
	}
	return json.Marshal(r.URI)
}

// UnmarshalJSON принимает как строку, так и объект
func (r *AudioRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = AudioRef{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = AudioRef{URI: s}
		return nil
	}
	var loc Locator
	if err := json.Unmarshal(b, &loc); err != nil {
		return fmt.Errorf("неверный формат ссылки на аудио: %w", err)
	}
	*r = AudioRef{Locator: &loc}
	return nil
}

// Track описывает один трек
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ArtistName string   `json:"artist_name"`
	AlbumName  string   `json:"album_name,omitempty"`
	Duration   float64  `json:"duration"` // Секунды для remote, миллисекунды для local
	Audio      AudioRef `json:"audio"`
	Image      string   `json:"image,omitempty"`
	Source     Source   `json:"source"`
}

// Length возвращает длительность трека с учетом единиц источника
func (t Track) Length() time.Duration {
	if t.Duration <= 0 {
		return 0
	}
	if t.Source == SourceLocal {
		return time.Duration(t.Duration * float64(time.Millisecond))
	}
	return time.Duration(t.Duration * float64(time.Second))
}

// HasAudio возвращает true, если у трека есть ссылка на аудио
func (t Track) HasAudio() bool {
	return !t.Audio.IsZero()
}

// NormalizeTrack заполняет пустые поля значениями по умолчанию и проверяет ссылки.
// Второе значение сообщает, пригоден ли трек для воспроизведения.
func NormalizeTrack(t Track) (Track, bool) {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.ArtistName = strings.TrimSpace(t.ArtistName)
	t.AlbumName = strings.TrimSpace(t.AlbumName)
	t.Image = strings.TrimSpace(t.Image)
	t.Audio.URI = strings.TrimSpace(t.Audio.URI)

	if t.Name == "" {
		t.Name = DefaultName
	}
	if t.ArtistName == "" {
		t.ArtistName = DefaultArtist
	}
	if t.Source == "" {
		t.Source = SourceRemote
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
	if t.Image != "" && !ValidImageURI(t.Image) {
		t.Image = ""
	}

	if t.ID == "" || t.Audio.IsZero() {
		return t, false
	}
	// Голый URI должен быть абсолютным, структурированные ссылки проверяются при разрешении
	if t.Audio.URI != "" && !IsAbsoluteURL(t.Audio.URI) {
		return t, false
	}
	return t, true
}

// IsAbsoluteURL проверяет, что строка - корректный абсолютный URL
func IsAbsoluteURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Scheme == "file" {
		return u.Path != ""
	}
	return u.Host != ""
}

// ValidImageURI проверяет ссылку на обложку перед отображением
func ValidImageURI(raw string) bool {
	if !IsAbsoluteURL(raw) {
		return false
	}
	u, _ := url.Parse(raw)
	switch u.Scheme {
	case "http", "https", "file":
		return true
	default:
		return false
	}
}

// IndexOf возвращает индекс трека с указанным ID или -1
func IndexOf(list []Track, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// MergeTracks объединяет списки без дубликатов по ID.
// Существующие записи обновляются новыми данными, порядок сохраняется.
func MergeTracks(existing, incoming []Track) []Track {
	merged := make([]Track, 0, len(existing)+len(incoming))
	positions := make(map[string]int, len(existing)+len(incoming))

	add := func(t Track) {
		if t.ID == "" {
			return
		}
		if i, ok := positions[t.ID]; ok {
			merged[i] = t
			return
		}
		positions[t.ID] = len(merged)
		merged = append(merged, t)
	}

	for _, t := range existing {
		add(t)
	}
	for _, t := range incoming {
		add(t)
	}
	return merged
}

// TrackByID возвращает трек по ID
func TrackByID(list []Track, id string) (*Track, error) {
	if i := IndexOf(list, id); i >= 0 {
		return &list[i], nil
	}
	return nil, fmt.Errorf("трека с ID %s не найдено", id)
}
