// Package audio описывает аудиодвижок: загрузку источника и управление одним звуком
package audio

import (
	"context"
	"errors"
	"time"
)

// Ошибки движка
var (
	ErrUnloaded          = errors.New("звук уже выгружен")
	ErrUnsupportedScheme = errors.New("неподдерживаемая схема URI")
	ErrUnsupportedFormat = errors.New("неподдерживаемый аудиоформат")
)

// Status описывает состояние загруженного звука
type Status struct {
	IsLoaded      bool
	IsPlaying     bool
	Position      time.Duration
	Duration      time.Duration
	DidJustFinish bool
}

// Handle управляет одним загруженным звуком
type Handle interface {
	// Status возвращает текущее состояние звука
	Status() (Status, error)
	// Play запускает или продолжает воспроизведение
	Play() error
	// Pause приостанавливает воспроизведение
	Pause() error
	// Stop останавливает воспроизведение и перематывает в начало
	Stop() error
	// SetPosition перематывает на указанную позицию
	SetPosition(pos time.Duration) error
	// Unload освобождает ресурсы; повторный вызов возвращает ErrUnloaded
	Unload() error
	// OnStatus устанавливает функцию, которую движок вызывает на каждом тике
	OnStatus(cb func(Status))
}

// Engine загружает источники по URI
type Engine interface {
	Load(ctx context.Context, uri string) (Handle, error)
}
