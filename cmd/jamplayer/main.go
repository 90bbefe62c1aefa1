package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/audio"
	"github.com/hazadus/go-jamplayer/internal/cache"
	"github.com/hazadus/go-jamplayer/internal/catalog"
	"github.com/hazadus/go-jamplayer/internal/catalog/local"
	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/config"
	"github.com/hazadus/go-jamplayer/internal/logs"
	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/s3"
	"github.com/hazadus/go-jamplayer/internal/source"
	"github.com/hazadus/go-jamplayer/internal/streaming"
)

const (
	defaultConfigPath = "~/.jamplayer"
	mirrorPrefix      = "jamplayer"
)

var version = "dev"

var log = logging.Logger(logs.UI)

// Application содержит все зависимости приложения
type Application struct {
	Config  *config.Config
	Catalog *catalog.Service
	Cache   *cache.TrackCache
	Library *local.Library
	Player  *playback.Coordinator
	Mirror  cache.Store     // Зеркало кэша в S3; nil, если S3 не настроен
	Keys    <-chan byte     // Источник нажатий для play; nil - терминал
	store   cache.Store
}

// NewApplication создает и инициализирует новый экземпляр приложения
func NewApplication(cfg *config.Config) (*Application, error) {
	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия кэша: %w", err)
	}
	tracks := cache.NewTrackCache(store, cfg.Cache.Key)

	client := remote.New(remote.Options{
		BaseURL:  cfg.Jamendo.BaseURL,
		ClientID: cfg.Jamendo.ClientID,
		Timeout:  cfg.HTTPTimeout(),
	})
	library := local.New(local.Options{
		Dir:       cfg.Library.MusicDir,
		MaxTracks: cfg.Library.MaxTracks,
		Workers:   cfg.Library.Workers,
	})

	engine := audio.NewBeepEngine(streaming.NewHTTPClient(), cfg.TickInterval())
	player := playback.New(engine, source.NewResolver(source.NewYouTube()), playback.Options{
		MaxRetries:  cfg.Playback.MaxRetries,
		RetryDelay:  cfg.RetryDelay(),
		AutoAdvance: cfg.Playback.AutoAdvance,
	})

	app := &Application{
		Config:  cfg,
		Catalog: catalog.NewService(client, library, tracks),
		Cache:   tracks,
		Library: library,
		Player:  player,
		store:   store,
	}

	if cfg.HasS3() {
		s3Client, err := s3.NewClient(&s3.Config{
			Region:     cfg.S3.Region,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			BucketName: cfg.S3.BucketName,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("ошибка создания S3 клиента: %w", err)
		}
		app.Mirror = cache.NewS3Store(s3Client, mirrorPrefix)
	}

	return app, nil
}

// Close освобождает ресурсы приложения
func (app *Application) Close() error {
	if app.Player != nil {
		_ = app.Player.Close()
	}
	if app.store != nil {
		return app.store.Close()
	}
	return nil
}

// setupLogging направляет логи в файл для TUI и в stderr для остальных команд
func (app *Application) setupLogging(tuiMode bool) error {
	opts := logs.Options{Level: app.Config.Log.Level, File: app.Config.Log.File}
	if tuiMode && opts.File == "" {
		opts.File = filepath.Join(app.Config.Cache.Path, "jamplayer.log")
	}
	return logs.Setup(opts)
}

func main() {
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка инициализации: %v\n", err)
		os.Exit(1)
	}

	// Контекст отменяется по Ctrl+C и SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := app.createRootCommand(ctx)
	err = rootCmd.Execute()

	stop()
	if closeErr := app.Close(); closeErr != nil {
		log.Warnw("ошибка закрытия приложения", "error", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// configPath возвращает путь к конфигурации с учетом JAMPLAYER_CONFIG
func configPath() string {
	if p := os.Getenv("JAMPLAYER_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}
