// Package params кодирует и разбирает параметры перехода на экран плеера
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hazadus/go-jamplayer/internal/data"
)

// ErrMalformed - параметр не удалось разобрать
var ErrMalformed = errors.New("некорректный параметр перехода")

// Player - параметры экрана плеера: текущий трек и список в виде JSON-строк
type Player struct {
	Track string
	List  string
}

// Encode сериализует трек и список
func Encode(track data.Track, list []data.Track) (Player, error) {
	t, err := json.Marshal(track)
	if err != nil {
		return Player{}, fmt.Errorf("ошибка сериализации трека: %w", err)
	}
	if list == nil {
		list = []data.Track{}
	}
	l, err := json.Marshal(list)
	if err != nil {
		return Player{}, fmt.Errorf("ошибка сериализации списка: %w", err)
	}
	return Player{Track: string(t), List: string(l)}, nil
}

// ParseTrack разбирает трек. Трек без ID считается некорректным.
func ParseTrack(s string) (data.Track, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return data.Track{}, fmt.Errorf("%w: пустой трек", ErrMalformed)
	}

	var t data.Track
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return data.Track{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	normalized, _ := data.NormalizeTrack(t)
	if normalized.ID == "" {
		return data.Track{}, fmt.Errorf("%w: трек без ID", ErrMalformed)
	}
	return normalized, nil
}

// ParseTrackList разбирает список. Пустая строка дает пустой список.
// Записи без ID отбрасываются.
func ParseTrackList(s string) ([]data.Track, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return []data.Track{}, nil
	}

	var raw []data.Track
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return []data.Track{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	list := make([]data.Track, 0, len(raw))
	for _, t := range raw {
		normalized, _ := data.NormalizeTrack(t)
		if normalized.ID == "" {
			continue
		}
		list = append(list, normalized)
	}
	return list, nil
}

// Decode разбирает оба параметра
func (p Player) Decode() (data.Track, []data.Track, error) {
	t, err := ParseTrack(p.Track)
	if err != nil {
		return data.Track{}, nil, err
	}
	l, err := ParseTrackList(p.List)
	if err != nil {
		return data.Track{}, nil, err
	}
	return t, l, nil
}
