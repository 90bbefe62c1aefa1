// Package common содержит общие для экранов TUI интерфейсы и сообщения
package common

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/playback"
)

// SeekStep - шаг перемотки стрелками
const SeekStep = 10 * time.Second

// Player - операции координатора воспроизведения, доступные экранам
type Player interface {
	Play(ctx context.Context, track data.Track, list []data.Track) error
	Pause()
	Resume()
	TogglePause()
	Stop()
	Seek(pos time.Duration)
	SeekBy(delta time.Duration)
	PlayNext(ctx context.Context) error
	PlayPrevious(ctx context.Context) error
	State() playback.State
	Subscribe() <-chan playback.Event
	Unsubscribe(ch <-chan playback.Event)
}

// EventMsg доставляет событие координатора в модели экранов
type EventMsg struct {
	Event playback.Event
}

// SubscriptionClosedMsg - канал событий закрыт
type SubscriptionClosedMsg struct{}

// PlayErrorMsg - запуск трека не удался
type PlayErrorMsg struct {
	Err error
}

// ListenEvents ждет следующее событие из канала подписки
func ListenEvents(ch <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return SubscriptionClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// PlayCmd запускает трек в фоне и сообщает об ошибке
func PlayCmd(p Player, track data.Track, list []data.Track) tea.Cmd {
	return func() tea.Msg {
		if err := p.Play(context.Background(), track, list); err != nil {
			return PlayErrorMsg{Err: err}
		}
		return nil
	}
}

// StepCmd переключает трек вперед (dir > 0) или назад
func StepCmd(p Player, dir int) tea.Cmd {
	return func() tea.Msg {
		var err error
		if dir > 0 {
			err = p.PlayNext(context.Background())
		} else {
			err = p.PlayPrevious(context.Background())
		}
		if err != nil {
			return PlayErrorMsg{Err: err}
		}
		return nil
	}
}
