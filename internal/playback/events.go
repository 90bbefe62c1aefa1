package playback

import "sync"

// EventType - тип события координатора
type EventType int

const (
	// EventStateChanged - любое изменение состояния, включая тики позиции
	EventStateChanged EventType = iota
	// EventTrackStarted - трек загружен и запущен
	EventTrackStarted
	// EventTrackFinished - трек доигран до конца
	EventTrackFinished
	// EventRetrying - загрузка не удалась, запланирована повторная попытка
	EventRetrying
	// EventPlaybackFailed - все попытки исчерпаны
	EventPlaybackFailed
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state_changed"
	case EventTrackStarted:
		return "track_started"
	case EventTrackFinished:
		return "track_finished"
	case EventRetrying:
		return "retrying"
	case EventPlaybackFailed:
		return "playback_failed"
	default:
		return "unknown"
	}
}

// Event - уведомление подписчику
type Event struct {
	Type    EventType
	State   State
	Attempt int   // Номер повторной попытки для EventRetrying
	Err     error // Причина для EventRetrying и EventPlaybackFailed
}

const subscriberBuffer = 32

// bus рассылает события по каналам подписчиков без блокировки
type bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

func newBus() *bus {
	return &bus{subs: make(map[chan Event]struct{})}
}

func (b *bus) subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

func (b *bus) unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		if sub == ch {
			delete(b.subs, sub)
			close(sub)
			return
		}
	}
}

func (b *bus) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Канал переполнен: медленный подписчик пропускает событие
		}
	}
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = make(map[chan Event]struct{})
}
