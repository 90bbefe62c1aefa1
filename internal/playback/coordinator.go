// Package playback содержит координатор воспроизведения: единственного владельца
// звука в движке, через которого экраны запускают, ставят на паузу и переключают треки.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/audio"
	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/logs"
	"github.com/hazadus/go-jamplayer/internal/source"
)

var log = logging.Logger(logs.Playback)

// Ошибки координатора
var (
	ErrNoSource      = errors.New("у трека нет ссылки на аудио")
	ErrBusy          = errors.New("запуск воспроизведения уже выполняется")
	ErrInvalidSource = errors.New("некорректный источник аудио")
	ErrLoadFailed    = errors.New("не удалось загрузить трек")
	ErrClosed        = errors.New("координатор закрыт")
)

// Значения по умолчанию
const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = time.Second
)

// Resolver превращает ссылку на аудио в URI
type Resolver interface {
	Resolve(ctx context.Context, ref data.AudioRef) (string, error)
}

// Options настраивает координатор.
// Нулевой MaxRetries отключает повторы; отрицательный заменяется на DefaultMaxRetries.
type Options struct {
	MaxRetries  int           // Дополнительные попытки после первой неудачи
	RetryDelay  time.Duration // Пауза между попытками
	AutoAdvance bool          // Переходить к следующему треку по окончании
}

// Coordinator владеет единственным звуком движка и состоянием воспроизведения
type Coordinator struct {
	engine   audio.Engine
	resolver Resolver
	opts     Options
	bus      *bus

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	handle   audio.Handle
	inFlight bool
	retries  map[*time.Timer]struct{}
	closed   bool
}

// New создает координатор. Если resolver равен nil, принимаются только голые URI.
func New(engine audio.Engine, resolver Resolver, opts Options) *Coordinator {
	if resolver == nil {
		resolver = source.NewResolver(nil)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		engine:   engine,
		resolver: resolver,
		opts:     opts,
		bus:      newBus(),
		ctx:      ctx,
		cancel:   cancel,
		retries:  make(map[*time.Timer]struct{}),
	}
}

// Subscribe возвращает канал событий. Канал закрывается при Unsubscribe или Close.
func (c *Coordinator) Subscribe() <-chan Event {
	return c.bus.subscribe()
}

// Unsubscribe отписывает канал и закрывает его
func (c *Coordinator) Unsubscribe(ch <-chan Event) {
	c.bus.unsubscribe(ch)
}

// State возвращает снимок текущего состояния
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// publish отправляет событие со снимком состояния (вызывается без блокировки)
func (c *Coordinator) publish(ev Event) {
	c.bus.publish(ev)
}

func (c *Coordinator) snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Play запускает трек из списка list. Предыдущий звук всегда останавливается и выгружается.
// Если первая попытка загрузки не удалась, повторы идут в фоне, а их итог приходит событиями.
func (c *Coordinator) Play(ctx context.Context, track data.Track, list []data.Track) error {
	if !track.HasAudio() {
		log.Warnw("у трека нет ссылки на аудио", "track", track.ID)
		return ErrNoSource
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.inFlight {
		c.mu.Unlock()
		log.Infow("запуск уже выполняется, запрос пропущен", "track", track.ID)
		return ErrBusy
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	return c.attempt(ctx, track, list, 0)
}

// attempt выполняет одну попытку загрузки. Повторы вызывают ее из таймера без флага inFlight.
func (c *Coordinator) attempt(ctx context.Context, track data.Track, list []data.Track, n int) error {
	c.teardown()

	c.mu.Lock()
	c.state = State{Phase: Loading}
	c.mu.Unlock()
	c.publish(Event{Type: EventStateChanged, State: c.snapshot()})

	uri, err := c.resolver.Resolve(ctx, track.Audio)
	switch {
	case errors.Is(err, source.ErrNoReference), errors.Is(err, source.ErrUnsupportedLocator):
		return c.invalid(track, fmt.Errorf("%w: %v", ErrInvalidSource, err))
	case err != nil:
		return c.retryOrGiveUp(track, list, n, err)
	}
	if !data.IsAbsoluteURL(uri) {
		return c.invalid(track, fmt.Errorf("%w: %q", ErrInvalidSource, uri))
	}

	log.Debugw("загрузка трека", "track", track.ID, "uri", uri, "attempt", n)

	h, err := c.engine.Load(ctx, uri)
	if err != nil {
		return c.retryOrGiveUp(track, list, n, fmt.Errorf("ошибка загрузки: %w", err))
	}

	st, err := h.Status()
	if err == nil && !st.IsLoaded {
		err = errors.New("звук не загружен")
	}
	if err != nil {
		c.release(h)
		return c.retryOrGiveUp(track, list, n, fmt.Errorf("ошибка проверки статуса: %w", err))
	}

	if err := h.Play(); err != nil {
		c.release(h)
		return c.retryOrGiveUp(track, list, n, fmt.Errorf("ошибка запуска: %w", err))
	}

	duration := st.Duration
	if duration <= 0 {
		duration = track.Length()
	}
	current := track

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.release(h)
		return ErrClosed
	}
	// Параллельная попытка (повтор) могла успеть установить свой звук
	previous := c.handle
	c.handle = h
	c.state = State{
		Track:    &current,
		List:     list,
		Playing:  true,
		Position: 0,
		Duration: duration,
		Phase:    Playing,
	}
	c.mu.Unlock()

	if previous != nil && previous != h {
		c.release(previous)
	}

	h.OnStatus(func(s audio.Status) { c.onStatus(h, s) })

	log.Infow("воспроизведение начато", "track", track.ID, "name", track.Name, "attempt", n)
	c.publish(Event{Type: EventTrackStarted, State: c.snapshot()})
	return nil
}

// invalid сбрасывает состояние после ошибки источника; такие ошибки не повторяются
func (c *Coordinator) invalid(track data.Track, err error) error {
	log.Errorw("некорректный источник", "track", track.ID, "error", err)
	c.resetIdle()
	return err
}

// retryOrGiveUp планирует повтор или сдается, если попытки исчерпаны
func (c *Coordinator) retryOrGiveUp(track data.Track, list []data.Track, n int, cause error) error {
	if n >= c.opts.MaxRetries {
		log.Errorw("воспроизведение не удалось, попытки исчерпаны",
			"track", track.ID, "attempts", n+1, "error", cause)
		c.resetIdle()
		c.publish(Event{Type: EventPlaybackFailed, State: c.snapshot(), Err: cause})
		return fmt.Errorf("%w: %v", ErrLoadFailed, cause)
	}

	next := n + 1
	log.Warnw("ошибка загрузки, повтор", "track", track.ID, "attempt", next,
		"delay", c.opts.RetryDelay, "error", cause)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var timer *time.Timer
	timer = time.AfterFunc(c.opts.RetryDelay, func() {
		c.mu.Lock()
		delete(c.retries, timer)
		stopped := c.closed
		c.mu.Unlock()
		if stopped || c.ctx.Err() != nil {
			return
		}
		_ = c.attempt(c.ctx, track, list, next)
	})
	c.retries[timer] = struct{}{}
	c.mu.Unlock()

	c.publish(Event{Type: EventRetrying, State: c.snapshot(), Attempt: next, Err: cause})
	return nil
}

// onStatus переносит статус движка в состояние; статусы замененного звука игнорируются
func (c *Coordinator) onStatus(h audio.Handle, s audio.Status) {
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	if !s.IsLoaded {
		c.mu.Unlock()
		return
	}

	c.state.Position = s.Position
	if s.Duration > 0 {
		c.state.Duration = s.Duration
	}
	c.state.Playing = s.IsPlaying
	switch {
	case s.IsPlaying:
		c.state.Phase = Playing
	case s.DidJustFinish:
		c.state.Phase = Paused
	case c.state.Phase == Playing:
		c.state.Phase = Paused
	}
	snap := c.state.clone()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})

	if s.DidJustFinish {
		log.Infow("трек доигран", "track", snap.Track.ID)
		c.publish(Event{Type: EventTrackFinished, State: snap})
		if c.opts.AutoAdvance {
			go func() {
				if err := c.PlayNext(c.ctx); err != nil {
					log.Warnw("автопереход не удался", "error", err)
				}
			}()
		}
	}
}

// current возвращает текущий звук или nil
func (c *Coordinator) current() audio.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Pause приостанавливает воспроизведение, если звук загружен и играет
func (c *Coordinator) Pause() {
	c.toggle(false)
}

// Resume продолжает воспроизведение, если звук загружен и стоит на паузе
func (c *Coordinator) Resume() {
	c.toggle(true)
}

// TogglePause переключает паузу
func (c *Coordinator) TogglePause() {
	if c.State().Playing {
		c.Pause()
		return
	}
	c.Resume()
}

func (c *Coordinator) toggle(play bool) {
	h := c.current()
	if h == nil {
		return
	}

	st, err := h.Status()
	if err != nil {
		log.Warnw("ошибка получения статуса", "error", err)
		return
	}
	if !st.IsLoaded || st.IsPlaying == play {
		log.Debugw("переключение пропущено", "loaded", st.IsLoaded, "playing", st.IsPlaying)
		return
	}

	if play {
		err = h.Play()
	} else {
		err = h.Pause()
	}
	if err != nil {
		log.Warnw("ошибка переключения паузы", "play", play, "error", err)
		return
	}

	c.mu.Lock()
	if c.handle == h {
		c.state.Playing = play
		if play {
			c.state.Phase = Playing
		} else {
			c.state.Phase = Paused
		}
	}
	snap := c.state.clone()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})
}

// Stop останавливает и выгружает звук. Безопасен без звука; состояние сбрасывается всегда.
func (c *Coordinator) Stop() {
	c.teardown()
	c.publish(Event{Type: EventStateChanged, State: c.snapshot()})
}

// teardown отсоединяет текущий звук, выгружает его и сбрасывает состояние
func (c *Coordinator) teardown() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h != nil {
		c.release(h)
	}
	c.resetState()
}

// release останавливает и выгружает звук, затем еще раз выгружает на случай сбоя
func (c *Coordinator) release(h audio.Handle) {
	if st, err := h.Status(); err == nil && st.IsLoaded {
		if err := h.Stop(); err != nil {
			log.Warnw("ошибка остановки", "error", err)
		}
		if err := h.Unload(); err != nil {
			log.Warnw("ошибка выгрузки", "error", err)
		}
	} else if err != nil && !errors.Is(err, audio.ErrUnloaded) {
		log.Warnw("ошибка получения статуса при остановке", "error", err)
	}

	if err := h.Unload(); err != nil && !errors.Is(err, audio.ErrUnloaded) {
		log.Warnw("ошибка повторной выгрузки", "error", err)
	}
}

func (c *Coordinator) resetState() {
	c.mu.Lock()
	c.state = State{Phase: Idle}
	c.mu.Unlock()
}

func (c *Coordinator) resetIdle() {
	c.resetState()
	c.publish(Event{Type: EventStateChanged, State: c.snapshot()})
}

// Seek перематывает текущий трек, если звук загружен
func (c *Coordinator) Seek(pos time.Duration) {
	h := c.current()
	if h == nil {
		return
	}

	st, err := h.Status()
	if err != nil || !st.IsLoaded {
		return
	}

	if pos < 0 {
		pos = 0
	}
	if st.Duration > 0 && pos > st.Duration {
		pos = st.Duration
	}

	if err := h.SetPosition(pos); err != nil {
		log.Warnw("ошибка перемотки", "position", pos, "error", err)
		return
	}

	c.mu.Lock()
	if c.handle == h {
		c.state.Position = pos
	}
	snap := c.state.clone()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})
}

// SeekBy смещает позицию на delta относительно текущей
func (c *Coordinator) SeekBy(delta time.Duration) {
	c.Seek(c.State().Position + delta)
}

// PlayNext запускает следующий трек списка
func (c *Coordinator) PlayNext(ctx context.Context) error {
	return c.step(ctx, 1)
}

// PlayPrevious запускает предыдущий трек списка
func (c *Coordinator) PlayPrevious(ctx context.Context) error {
	return c.step(ctx, -1)
}

func (c *Coordinator) step(ctx context.Context, dir int) error {
	c.mu.Lock()
	cur := c.state.Track
	list := c.state.List
	busy := c.inFlight
	c.mu.Unlock()

	if cur == nil || len(list) == 0 || busy {
		return nil
	}

	idx := data.IndexOf(list, cur.ID)
	if idx < 0 {
		log.Warnw("текущий трек не найден в списке, используется первый", "track", cur.ID)
		idx = 0
	}

	target := idx + dir
	if target < 0 || target >= len(list) {
		return nil
	}
	return c.Play(ctx, list[target], list)
}

// Close отменяет повторы, останавливает звук и закрывает подписки
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for t := range c.retries {
		t.Stop()
	}
	c.retries = make(map[*time.Timer]struct{})
	c.mu.Unlock()

	c.cancel()
	c.teardown()
	c.bus.close()
	return nil
}
