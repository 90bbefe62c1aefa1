package playback

import (
	"time"

	"github.com/hazadus/go-jamplayer/internal/data"
)

// Phase - фаза жизненного цикла воспроизведения
type Phase int

const (
	Idle Phase = iota
	Loading
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// State - снимок состояния воспроизведения
type State struct {
	Track    *data.Track  // Текущий трек или nil
	List     []data.Track // Список, из которого запущен трек
	Playing  bool
	Position time.Duration
	Duration time.Duration
	Phase    Phase
}

// HasTrack возвращает true, если есть текущий трек
func (s State) HasTrack() bool {
	return s.Track != nil
}

// Progress возвращает долю проигранного от 0 до 1
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Position) / float64(s.Duration)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// clone копирует состояние, чтобы подписчики не делили память с координатором
func (s State) clone() State {
	if s.Track != nil {
		t := *s.Track
		s.Track = &t
	}
	if s.List != nil {
		s.List = append([]data.Track(nil), s.List...)
	}
	return s
}
