package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/logs"
	"github.com/hazadus/go-jamplayer/internal/streaming"
)

var log = logging.Logger(logs.Audio)

// Частота вывода, на которой инициализируются динамики
const outputSampleRate = beep.SampleRate(44100)

// BeepEngine воспроизводит звук через динамики с помощью beep
type BeepEngine struct {
	client       *http.Client
	tickInterval time.Duration

	mu          sync.Mutex
	initialized bool
}

// NewBeepEngine создает движок. Если client равен nil, используется клиент для потокового чтения.
func NewBeepEngine(client *http.Client, tickInterval time.Duration) *BeepEngine {
	if client == nil {
		client = streaming.NewHTTPClient()
	}
	if tickInterval <= 0 {
		tickInterval = 500 * time.Millisecond
	}
	return &BeepEngine{client: client, tickInterval: tickInterval}
}

// initSpeaker инициализирует динамики (только один раз)
func (e *BeepEngine) initSpeaker() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	if err := speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/5)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	e.initialized = true
	return nil
}

// source открывает поток по URI и возвращает путь для определения формата
func (e *BeepEngine) source(ctx context.Context, uri string) (io.ReadCloser, string, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", "", fmt.Errorf("неверный URI %q: %w", uri, err)
	}

	switch u.Scheme {
	case "http", "https":
		r, err := streaming.NewReader(ctx, e.client, uri, streaming.DefaultBufferSize)
		if err != nil {
			return nil, "", "", fmt.Errorf("ошибка создания потокового ридера: %w", err)
		}
		return r, u.Path, r.ContentType(), nil
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, "", "", fmt.Errorf("ошибка открытия файла: %w", err)
		}
		return f, u.Path, "", nil
	default:
		return nil, "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// Load открывает и декодирует источник. Звук загружается на паузе.
func (e *BeepEngine) Load(ctx context.Context, uri string) (Handle, error) {
	// Поток живет дольше вызова Load, но отмена ctx прерывает загрузку
	hctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopAbort := context.AfterFunc(ctx, cancel)

	rc, path, contentType, err := e.source(hctx, uri)
	if err != nil {
		stopAbort()
		cancel()
		return nil, err
	}

	format, err := DetectFormat(path, contentType)
	if err != nil {
		stopAbort()
		rc.Close()
		cancel()
		return nil, err
	}

	streamer, bf, err := Decode(rc, format)
	if err != nil {
		stopAbort()
		rc.Close()
		cancel()
		return nil, err
	}

	if !stopAbort() {
		// ctx отменили, пока шла загрузка
		streamer.Close()
		rc.Close()
		return nil, fmt.Errorf("загрузка прервана: %w", ctx.Err())
	}

	if err := e.initSpeaker(); err != nil {
		streamer.Close()
		rc.Close()
		cancel()
		return nil, err
	}

	h := &beepHandle{
		ctx:      hctx,
		cancel:   cancel,
		streamer: streamer,
		format:   bf,
		reader:   rc,
		enqueue:  func(st beep.Streamer) { speaker.Play(st) },
	}

	var out beep.Streamer = streamer
	if bf.SampleRate != outputSampleRate {
		out = beep.Resample(4, bf.SampleRate, outputSampleRate, streamer)
	}
	h.ctrl = &beep.Ctrl{Streamer: out, Paused: true}

	h.enqueue(h.sequence())
	go h.monitor(e.tickInterval)

	log.Debugw("источник загружен", "uri", uri, "format", format, "sample_rate", int(bf.SampleRate))
	return h, nil
}

// beepHandle - звук, загруженный в BeepEngine
type beepHandle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	format   beep.Format
	reader   io.Closer
	cb       func(Status)
	enqueue  func(beep.Streamer)

	// Флаги меняются из горутины динамиков, поэтому атомарные
	unloaded     atomic.Bool
	done         atomic.Bool
	justFinished atomic.Bool
}

// finished вызывается динамиками, когда поток закончился
func (h *beepHandle) finished() {
	if h.unloaded.Load() {
		return
	}
	h.done.Store(true)
	h.justFinished.Store(true)
}

// sequence - поток для динамиков. Доигранная последовательность удаляется
// из микшера, поэтому после окончания нужна новая.
func (h *beepHandle) sequence() beep.Streamer {
	return beep.Seq(h.ctrl, beep.Callback(h.finished))
}

// status собирает состояние звука. Флаг окончания сбрасывает только монитор.
func (h *beepHandle) status(consume bool) Status {
	if h.unloaded.Load() {
		return Status{}
	}

	speaker.Lock()
	pos := h.format.SampleRate.D(h.streamer.Position())
	total := h.format.SampleRate.D(h.streamer.Len())
	paused := h.ctrl.Paused
	speaker.Unlock()

	justFinished := h.justFinished.Load()
	if consume {
		justFinished = h.justFinished.Swap(false)
	}
	return Status{
		IsLoaded:      true,
		IsPlaying:     !paused && !h.done.Load(),
		Position:      pos,
		Duration:      total,
		DidJustFinish: justFinished,
	}
}

func (h *beepHandle) Status() (Status, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded.Load() {
		return Status{}, ErrUnloaded
	}
	return h.status(false), nil
}

func (h *beepHandle) setPaused(paused bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded.Load() {
		return ErrUnloaded
	}
	speaker.Lock()
	h.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

// Play продолжает воспроизведение. Доигранный звук начинается сначала.
func (h *beepHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded.Load() {
		return ErrUnloaded
	}

	speaker.Lock()
	h.ctrl.Paused = false
	wasDone := h.done.Swap(false)
	var err error
	if wasDone {
		err = h.streamer.Seek(0)
	}
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}

	if wasDone {
		h.enqueue(h.sequence())
	}
	return nil
}

func (h *beepHandle) Pause() error { return h.setPaused(true) }

func (h *beepHandle) Stop() error {
	if err := h.setPaused(true); err != nil {
		return err
	}
	return h.SetPosition(0)
}

func (h *beepHandle) SetPosition(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded.Load() {
		return ErrUnloaded
	}

	speaker.Lock()
	n := h.format.SampleRate.N(pos)
	if l := h.streamer.Len(); l > 0 && n >= l {
		n = l - 1
	}
	if n < 0 {
		n = 0
	}
	err := h.streamer.Seek(n)
	wasDone := false
	if err == nil {
		wasDone = h.done.Swap(false)
	}
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}

	if wasDone {
		h.enqueue(h.sequence())
	}
	return nil
}

func (h *beepHandle) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded.Swap(true) {
		return ErrUnloaded
	}

	speaker.Lock()
	h.ctrl.Streamer = nil
	h.ctrl.Paused = false
	speaker.Unlock()

	h.cancel()
	if err := h.streamer.Close(); err != nil {
		log.Debugw("ошибка закрытия декодера", "error", err)
	}
	if err := h.reader.Close(); err != nil {
		log.Debugw("ошибка закрытия источника", "error", err)
	}
	h.cb = nil
	return nil
}

func (h *beepHandle) OnStatus(cb func(Status)) {
	h.mu.Lock()
	h.cb = cb
	h.mu.Unlock()
}

// monitor периодически отправляет статус подписчику до выгрузки звука
func (h *beepHandle) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			if h.unloaded.Load() {
				h.mu.Unlock()
				return
			}
			cb := h.cb
			var st Status
			if cb != nil {
				st = h.status(true)
			}
			h.mu.Unlock()

			// Колбэк вызывается без блокировки: он может выгрузить звук
			if cb != nil {
				cb(st)
			}
		}
	}
}
