package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jamplayer/internal/catalog"
	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/utils"
)

// createSearchCommand создает команду search
func (app *Application) createSearchCommand(ctx context.Context) *cobra.Command {
	var (
		tags   []string
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search tracks in the Jamendo catalog",
		Long:  `Search tracks in the Jamendo catalog. Falls back to cached tracks when the catalog is unavailable.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			q := remote.Query{Tags: tags, Offset: offset, Limit: limit}
			if len(args) == 1 {
				q.Search = args[0]
			}
			return app.search(ctx, q)
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "genre tags, comma separated")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of tracks to skip")
	cmd.Flags().IntVar(&limit, "limit", app.Config.Jamendo.PageSize, "page size")
	return cmd
}

func (app *Application) search(ctx context.Context, q remote.Query) error {
	res, err := app.Catalog.Search(ctx, q)
	if err != nil {
		fmt.Printf("❌ %s\n", catalog.Notice(err))
		return fmt.Errorf("ошибка поиска: %w", err)
	}

	if res.FromCache {
		fmt.Printf("⚠️  %s\n", catalog.Notice(res.Cause))
	}
	if len(res.Tracks) == 0 {
		fmt.Println("🔎 Ничего не найдено")
		return nil
	}

	fmt.Printf("🔎 Найдено треков: %d\n\n", len(res.Tracks))
	printTracks(res.Tracks)
	if !res.FromCache {
		fmt.Printf("💡 Следующая страница: --offset %d\n", q.Offset+len(res.Tracks))
	}
	return nil
}

// createLocalCommand создает команду local
func (app *Application) createLocalCommand(ctx context.Context) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Scan the local music directory",
		Long:  `Scan the configured music directory for supported audio files.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := app.scanLocal(ctx); err != nil {
				return err
			}
			if watch {
				return app.watchLibrary(ctx)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", app.Config.Library.Watch, "rescan when the directory changes")
	return cmd
}

func (app *Application) scanLocal(ctx context.Context) error {
	fmt.Printf("📂 Сканируем %s\n", app.Library.Dir())

	tracks, err := app.Catalog.Local(ctx)
	if err != nil {
		fmt.Printf("❌ %s\n", catalog.Notice(err))
		return fmt.Errorf("ошибка сканирования медиатеки: %w", err)
	}
	if len(tracks) == 0 {
		fmt.Println("📚 Медиатека пуста")
		return nil
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))
	printTracks(tracks)
	return nil
}

// watchLibrary печатает сводку после каждого изменения медиатеки, пока не отменен ctx
func (app *Application) watchLibrary(ctx context.Context) error {
	fmt.Println("👀 Следим за изменениями, Ctrl+C для выхода")
	err := app.Library.Watch(ctx, time.Second, func(tracks []data.Track, err error) {
		if err != nil {
			fmt.Printf("❌ Ошибка пересканирования: %v\n", err)
			return
		}
		fmt.Printf("🔄 %s: треков в медиатеке %d\n", time.Now().Format("15:04:05"), len(tracks))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// printTracks выводит треки таблицей
func printTracks(tracks []data.Track) {
	fmt.Printf("%-4s %-30s %-30s %-20s %-8s\n",
		"#", "Исполнитель", "Название", "Альбом", "Время")
	fmt.Println(strings.Repeat("-", 96))

	for i, t := range tracks {
		duration := "N/A"
		if t.Length() > 0 {
			duration = utils.FormatClock(t.Length())
		}
		fmt.Printf("%-4d %-30s %-30s %-20s %-8s\n",
			i+1,
			utils.TruncateString(t.ArtistName, 28),
			utils.TruncateString(t.Name, 28),
			utils.TruncateString(t.AlbumName, 18),
			duration)
	}
	fmt.Println()
}
