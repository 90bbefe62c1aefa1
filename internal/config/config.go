// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// JamendoConfig настройки онлайн-каталога
type JamendoConfig struct {
	ClientID string `yaml:"client_id" toml:"client_id"`
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	PageSize int    `yaml:"page_size" toml:"page_size"`
	Timeout  int    `yaml:"timeout" toml:"timeout"` // Секунды
}

// LibraryConfig настройки локальной медиатеки
type LibraryConfig struct {
	MusicDir  string `yaml:"music_dir" toml:"music_dir"`
	MaxTracks int    `yaml:"max_tracks" toml:"max_tracks"`
	Workers   int    `yaml:"workers" toml:"workers"`
	Watch     bool   `yaml:"watch" toml:"watch"`
}

// CacheConfig настройки локального кэша треков
type CacheConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // file или sqlite
	Path    string `yaml:"path" toml:"path"`
	Key     string `yaml:"key" toml:"key"`
}

// S3Config настройки зеркала кэша в S3
type S3Config struct {
	BucketName string `yaml:"bucket_name" toml:"bucket_name"`
	AccessKey  string `yaml:"access_key" toml:"access_key"`
	SecretKey  string `yaml:"secret_key" toml:"secret_key"`
	Region     string `yaml:"region" toml:"region"`
	Endpoint   string `yaml:"endpoint" toml:"endpoint"`
}

// PlaybackConfig настройки координатора воспроизведения
type PlaybackConfig struct {
	MaxRetries   int  `yaml:"max_retries" toml:"max_retries"`
	RetryDelay   int  `yaml:"retry_delay" toml:"retry_delay"`     // Миллисекунды
	TickInterval int  `yaml:"tick_interval" toml:"tick_interval"` // Миллисекунды
	AutoAdvance  bool `yaml:"auto_advance" toml:"auto_advance"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Config структура для хранения конфигурации приложения
type Config struct {
	Jamendo  JamendoConfig  `yaml:"jamendo" toml:"jamendo"`
	Library  LibraryConfig  `yaml:"library" toml:"library"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	S3       S3Config       `yaml:"s3" toml:"s3"`
	Playback PlaybackConfig `yaml:"playback" toml:"playback"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Jamendo: JamendoConfig{
			BaseURL:  "https://api.jamendo.com/v3.0",
			PageSize: 20,
			Timeout:  15,
		},
		Library: LibraryConfig{
			MusicDir:  "~/Music",
			MaxTracks: 500,
			Workers:   4,
		},
		Cache: CacheConfig{
			Backend: "file",
			Path:    "~/.cache/jamplayer",
			Key:     "cached_tracks",
		},
		Playback: PlaybackConfig{
			MaxRetries:   2,
			RetryDelay:   1000,
			TickInterval: 500,
			AutoAdvance:  true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не считается ошибкой: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	// .env в рабочей директории необязателен
	_ = godotenv.Load()

	// Разбираем поверх значений по умолчанию, чтобы отсутствующие ключи их сохранили
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Файла нет - остаемся на значениях по умолчанию
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	case strings.EqualFold(filepath.Ext(path), ".toml"):
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("ошибка разбора TOML конфигурации: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	}

	config.ApplyDefaults()
	applyEnvOverrides(config)

	// Раскрываем тильду в путях
	config.Library.MusicDir = strings.Replace(config.Library.MusicDir, "~", home, 1)
	config.Cache.Path = strings.Replace(config.Cache.Path, "~", home, 1)
	config.Log.File = strings.Replace(config.Log.File, "~", home, 1)

	return config, nil
}

// ApplyDefaults заполняет нулевые значения значениями по умолчанию
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Jamendo.BaseURL == "" {
		c.Jamendo.BaseURL = d.Jamendo.BaseURL
	}
	if c.Jamendo.PageSize <= 0 {
		c.Jamendo.PageSize = d.Jamendo.PageSize
	}
	if c.Jamendo.Timeout <= 0 {
		c.Jamendo.Timeout = d.Jamendo.Timeout
	}

	if c.Library.MusicDir == "" {
		c.Library.MusicDir = d.Library.MusicDir
	}
	if c.Library.MaxTracks <= 0 {
		c.Library.MaxTracks = d.Library.MaxTracks
	}
	if c.Library.Workers <= 0 {
		c.Library.Workers = d.Library.Workers
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Cache.Path == "" {
		c.Cache.Path = d.Cache.Path
	}
	if c.Cache.Key == "" {
		c.Cache.Key = d.Cache.Key
	}

	// Ноль повторов - допустимое значение, отрицательное - нет
	if c.Playback.MaxRetries < 0 {
		c.Playback.MaxRetries = d.Playback.MaxRetries
	}
	if c.Playback.RetryDelay <= 0 {
		c.Playback.RetryDelay = d.Playback.RetryDelay
	}
	if c.Playback.TickInterval <= 0 {
		c.Playback.TickInterval = d.Playback.TickInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// RetryDelay возвращает задержку между попытками загрузки
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Playback.RetryDelay) * time.Millisecond
}

// TickInterval возвращает интервал обновления статуса плеера
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Playback.TickInterval) * time.Millisecond
}

// HTTPTimeout возвращает таймаут запросов к каталогу
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Jamendo.Timeout) * time.Second
}

// HasS3 возвращает true, если настроено зеркало кэша в S3
func (c *Config) HasS3() bool {
	return c.S3.BucketName != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

// applyEnvOverrides применяет переопределения из переменных окружения
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("JAMPLAYER_JAMENDO_CLIENT_ID"); v != "" {
		c.Jamendo.ClientID = v
	}
	if v := os.Getenv("JAMPLAYER_MUSIC_DIR"); v != "" {
		c.Library.MusicDir = v
	}
	if v := os.Getenv("JAMPLAYER_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("JAMPLAYER_MAX_RETRIES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			c.Playback.MaxRetries = i
		}
	}
	if v := os.Getenv("JAMPLAYER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("JAMPLAYER_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}
