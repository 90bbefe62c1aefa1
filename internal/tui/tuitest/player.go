// Package tuitest содержит заглушки для тестов экранов TUI
package tuitest

import (
	"context"
	"sync"
	"time"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/tui/common"
)

var _ common.Player = (*FakePlayer)(nil)

// FakePlayer реализует common.Player и запоминает вызовы
type FakePlayer struct {
	mu     sync.Mutex
	St     playback.State
	Calls  []string
	Played []data.Track
	Err    error
	events chan playback.Event
}

// NewFakePlayer создает FakePlayer с буферизованным каналом событий
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{events: make(chan playback.Event, 16)}
}

func (f *FakePlayer) record(call string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.mu.Unlock()
}

// CallList возвращает копию списка вызовов
func (f *FakePlayer) CallList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

func (f *FakePlayer) Play(_ context.Context, track data.Track, list []data.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "play")
	if f.Err != nil {
		return f.Err
	}
	f.Played = append(f.Played, track)
	t := track
	f.St = playback.State{Track: &t, List: list, Playing: true, Phase: playback.Playing}
	return nil
}

func (f *FakePlayer) Pause()       { f.record("pause") }
func (f *FakePlayer) Resume()      { f.record("resume") }
func (f *FakePlayer) TogglePause() { f.record("toggle") }
func (f *FakePlayer) Stop()        { f.record("stop") }

func (f *FakePlayer) Seek(time.Duration) { f.record("seek") }

func (f *FakePlayer) SeekBy(d time.Duration) {
	if d < 0 {
		f.record("seek-back")
		return
	}
	f.record("seek-forward")
}

func (f *FakePlayer) PlayNext(context.Context) error {
	f.record("next")
	return nil
}

func (f *FakePlayer) PlayPrevious(context.Context) error {
	f.record("previous")
	return nil
}

func (f *FakePlayer) State() playback.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.St
}

func (f *FakePlayer) Subscribe() <-chan playback.Event { return f.events }
func (f *FakePlayer) Unsubscribe(<-chan playback.Event) {}

// Emit отправляет событие подписчику
func (f *FakePlayer) Emit(ev playback.Event) {
	f.events <- ev
}
