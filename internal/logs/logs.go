// Package logs настраивает именованные логгеры приложения
package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"
)

// Имена подсистем, под которыми пакеты получают логгеры
const (
	Playback = "playback"
	Audio    = "audio"
	Catalog  = "catalog"
	Cache    = "cache"
	Library  = "library"
	UI       = "ui"
)

var subsystems = []string{Playback, Audio, Catalog, Cache, Library, UI}

// Options задает уровень и место вывода логов
type Options struct {
	Level string
	File  string // Пустая строка - вывод в stderr
	JSON  bool
}

// Setup настраивает вывод всех логгеров приложения.
// В режиме TUI логи нужно писать в файл, иначе они портят экран.
func Setup(opts Options) error {
	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		return fmt.Errorf("неверный уровень логирования %q: %w", level, err)
	}

	cfg := logging.Config{
		Format: logging.PlaintextOutput,
		Level:  lvl,
		Stderr: opts.File == "",
	}
	if opts.JSON {
		cfg.Format = logging.JSONOutput
	}
	if opts.File != "" {
		path := expandHome(opts.File)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("ошибка создания директории для логов: %w", err)
		}
		cfg.File = path
	}

	logging.SetupLogging(cfg)

	for _, name := range subsystems {
		if err := logging.SetLogLevel(name, level); err != nil {
			// Подсистема еще не зарегистрирована: логгер появится при импорте пакета
			continue
		}
	}
	return nil
}

// Silence отключает вывод ниже уровня error (удобно для тестов и CLI)
func Silence() {
	for _, name := range subsystems {
		_ = logging.SetLogLevel(name, "error")
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return strings.Replace(path, "~", home, 1)
}
