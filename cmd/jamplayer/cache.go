package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hazadus/go-jamplayer/internal/cache"
)

// errNoMirror - зеркало кэша в S3 не настроено
var errNoMirror = errors.New("S3 не настроен: заполните секцию s3 в конфигурации")

// createCacheCommand создает команду cache с подкомандами
func (app *Application) createCacheCommand(ctx context.Context) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached tracks",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached tracks",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listCache(ctx)
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached tracks",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := app.Catalog.ClearCache(ctx); err != nil {
				return fmt.Errorf("ошибка очистки кэша: %w", err)
			}
			fmt.Println("🧹 Кэш очищен")
			return nil
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Upload the cache to S3",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.syncCache(ctx, true)
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Download the cache from S3",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.syncCache(ctx, false)
		},
	})

	return cacheCmd
}

func (app *Application) listCache(ctx context.Context) error {
	tracks, err := app.Catalog.Cached(ctx)
	if err != nil {
		return fmt.Errorf("ошибка чтения кэша: %w", err)
	}
	if len(tracks) == 0 {
		fmt.Println("💾 Кэш пуст. Найдите треки с помощью команды 'search'.")
		return nil
	}

	fmt.Printf("💾 В кэше треков: %d (%s)\n\n", len(tracks), humanize.Bytes(app.blobSize(ctx, app.Cache.Store())))
	printTracks(tracks)
	fmt.Println("💡 Используйте 'jamplayer play [N]' для воспроизведения трека")
	return nil
}

// syncCache копирует блоб кэша в S3 (push) или из S3 (pull)
func (app *Application) syncCache(ctx context.Context, push bool) error {
	if app.Mirror == nil {
		fmt.Printf("❌ %v\n", errNoMirror)
		return errNoMirror
	}

	from, to, verb := app.Cache.Store(), app.Mirror, "📤 Выгружаем кэш в S3"
	if !push {
		from, to, verb = app.Mirror, app.Cache.Store(), "📥 Загружаем кэш из S3"
	}

	fmt.Printf("%s (ключ %s)\n", verb, app.Cache.Key())
	if err := cache.Copy(ctx, from, to, app.Cache.Key()); err != nil {
		fmt.Printf("❌ Ошибка синхронизации: %v\n", err)
		return fmt.Errorf("ошибка синхронизации кэша: %w", err)
	}

	fmt.Printf("✅ Готово: %s\n", humanize.Bytes(app.blobSize(ctx, to)))
	return nil
}

func (app *Application) blobSize(ctx context.Context, store cache.Store) uint64 {
	blob, err := store.Get(ctx, app.Cache.Key())
	if err != nil {
		return 0
	}
	return uint64(len(blob))
}
