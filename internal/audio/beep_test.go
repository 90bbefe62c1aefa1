package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const testRate = 1000

// wavBytes собирает моно WAV 16 бит с частотой testRate
func wavBytes(frames int) []byte {
	var buf bytes.Buffer
	dataLen := int32(frames * 2)
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	w(36 + dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(int32(16))
	w(int16(1))            // PCM
	w(int16(1))            // каналы
	w(int32(testRate))     // частота
	w(int32(testRate * 2)) // байт в секунду
	w(int16(2))            // байт на кадр
	w(int16(16))           // бит на сэмпл
	buf.WriteString("data")
	w(dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

// newTestHandle создает звук без динамиков. Последовательности, отданные
// в микшер, собираются в срез.
func newTestHandle(t *testing.T, frames int) (*beepHandle, *[]beep.Streamer) {
	t.Helper()
	streamer, format, err := wav.Decode(bytes.NewReader(wavBytes(frames)))
	if err != nil {
		t.Fatalf("Ошибка декодирования тестового WAV: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var queued []beep.Streamer
	h := &beepHandle{
		ctx:      ctx,
		cancel:   cancel,
		streamer: streamer,
		format:   format,
		reader:   io.NopCloser(bytes.NewReader(nil)),
		ctrl:     &beep.Ctrl{Streamer: streamer, Paused: true},
		enqueue:  func(s beep.Streamer) { queued = append(queued, s) },
	}
	h.enqueue(h.sequence())
	return h, &queued
}

// drain прокручивает последовательность, как это делает микшер
func drain(s beep.Streamer) int {
	buf := make([][2]float64, 512)
	total := 0
	for i := 0; i < 10; i++ {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	return total
}

func mustStatus(t *testing.T, h *beepHandle) Status {
	t.Helper()
	st, err := h.Status()
	if err != nil {
		t.Fatalf("Неожиданная ошибка статуса: %v", err)
	}
	return st
}

func TestHandleUnloadTwice(t *testing.T) {
	h, _ := newTestHandle(t, 100)

	if err := h.Unload(); err != nil {
		t.Fatalf("Неожиданная ошибка выгрузки: %v", err)
	}
	if err := h.Unload(); !errors.Is(err, ErrUnloaded) {
		t.Errorf("Повторная выгрузка должна вернуть ErrUnloaded, получено: %v", err)
	}
	if _, err := h.Status(); !errors.Is(err, ErrUnloaded) {
		t.Errorf("Статус после выгрузки должен вернуть ErrUnloaded, получено: %v", err)
	}
	if err := h.Play(); !errors.Is(err, ErrUnloaded) {
		t.Errorf("Play после выгрузки должен вернуть ErrUnloaded, получено: %v", err)
	}
	if err := h.SetPosition(0); !errors.Is(err, ErrUnloaded) {
		t.Errorf("SetPosition после выгрузки должен вернуть ErrUnloaded, получено: %v", err)
	}
}

func TestHandleLoadsPaused(t *testing.T) {
	h, _ := newTestHandle(t, 100)

	st := mustStatus(t, h)
	if !st.IsLoaded || st.IsPlaying {
		t.Errorf("Звук должен быть загружен на паузе, получено %+v", st)
	}
	if st.Duration != 100*time.Millisecond {
		t.Errorf("Ожидалась длительность 100ms, получено %v", st.Duration)
	}
}

func TestHandleStopRewinds(t *testing.T) {
	h, queued := newTestHandle(t, 1000)

	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	(*queued)[0].Stream(make([][2]float64, 50))
	if st := mustStatus(t, h); st.Position != 50*time.Millisecond || !st.IsPlaying {
		t.Fatalf("Ожидалось воспроизведение на 50ms, получено %+v", st)
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("Неожиданная ошибка остановки: %v", err)
	}
	st := mustStatus(t, h)
	if st.Position != 0 {
		t.Errorf("После остановки позиция должна быть 0, получено %v", st.Position)
	}
	if st.IsPlaying {
		t.Error("После остановки звук не должен играть")
	}
}

func TestHandleSetPositionClamps(t *testing.T) {
	h, _ := newTestHandle(t, 100)

	if err := h.SetPosition(10 * time.Second); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if st := mustStatus(t, h); st.Position != 99*time.Millisecond {
		t.Errorf("Позиция должна упереться в последний кадр, получено %v", st.Position)
	}

	if err := h.SetPosition(-time.Second); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if st := mustStatus(t, h); st.Position != 0 {
		t.Errorf("Отрицательная позиция должна стать 0, получено %v", st.Position)
	}
}

func TestHandleFinishFlagIsKeptForMonitor(t *testing.T) {
	h, queued := newTestHandle(t, 100)
	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	drain((*queued)[0])

	// Публичный статус не сбрасывает флаг окончания
	for i := 0; i < 2; i++ {
		st := mustStatus(t, h)
		if !st.DidJustFinish {
			t.Fatalf("Вызов %d: ожидался флаг окончания", i+1)
		}
		if st.IsPlaying {
			t.Errorf("Доигранный звук не должен считаться играющим")
		}
	}

	if st := h.status(true); !st.DidJustFinish {
		t.Fatal("Монитор должен получить флаг окончания")
	}
	if st := mustStatus(t, h); st.DidJustFinish {
		t.Error("После монитора флаг окончания должен быть сброшен")
	}
}

func TestHandleResumeAfterFinishPlaysAgain(t *testing.T) {
	h, queued := newTestHandle(t, 100)
	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	drain((*queued)[0])
	h.status(true)

	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка продолжения: %v", err)
	}
	if len(*queued) != 2 {
		t.Fatalf("Ожидалась новая последовательность в микшере, всего %d", len(*queued))
	}
	st := mustStatus(t, h)
	if !st.IsPlaying || st.Position != 0 {
		t.Errorf("Ожидалось воспроизведение с начала, получено %+v", st)
	}

	if n := drain((*queued)[1]); n != 100 {
		t.Errorf("Новая последовательность должна отдать 100 кадров, отдала %d", n)
	}
	if st := h.status(true); !st.DidJustFinish {
		t.Error("Повторное окончание должно быть замечено")
	}
}

func TestHandleSeekAfterFinishPlaysAgain(t *testing.T) {
	h, queued := newTestHandle(t, 100)
	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	drain((*queued)[0])

	if err := h.SetPosition(20 * time.Millisecond); err != nil {
		t.Fatalf("Неожиданная ошибка перемотки: %v", err)
	}
	if len(*queued) != 2 {
		t.Fatalf("Ожидалась новая последовательность в микшере, всего %d", len(*queued))
	}
	st := mustStatus(t, h)
	if !st.IsPlaying || st.Position != 20*time.Millisecond {
		t.Errorf("Ожидалось воспроизведение с 20ms, получено %+v", st)
	}
	if n := drain((*queued)[1]); n != 80 {
		t.Errorf("Ожидалось 80 оставшихся кадров, получено %d", n)
	}
}

func TestHandlePauseDoesNotRequeue(t *testing.T) {
	h, queued := newTestHandle(t, 100)
	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if err := h.Pause(); err != nil {
		t.Fatalf("Неожиданная ошибка паузы: %v", err)
	}
	if err := h.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(*queued) != 1 {
		t.Errorf("Пауза без окончания не должна добавлять последовательность, всего %d", len(*queued))
	}
}
