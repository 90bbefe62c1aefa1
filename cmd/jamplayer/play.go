package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/tui/common"
	"github.com/hazadus/go-jamplayer/internal/tui/params"
	"github.com/hazadus/go-jamplayer/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var trackParam, listParam string

	cmd := &cobra.Command{
		Use:   "play [N]",
		Short: "Play the N-th cached track or a track passed as JSON",
		Long: `Play a track by its number in the cache (see 'cache list'),
or a track and list passed as JSON with --track and --list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			track, list, err := app.playArgs(ctx, trackParam, listParam, args)
			if err != nil {
				fmt.Printf("❌ Ошибка: %v\n", err)
				return err
			}
			return app.playTrack(ctx, track, list)
		},
	}

	cmd.Flags().StringVar(&trackParam, "track", "", "track as JSON")
	cmd.Flags().StringVar(&listParam, "list", "", "track list as JSON array")
	return cmd
}

// playArgs выбирает трек и список из флагов или из кэша
func (app *Application) playArgs(ctx context.Context, trackParam, listParam string, args []string) (data.Track, []data.Track, error) {
	if trackParam != "" {
		return params.Player{Track: trackParam, List: listParam}.Decode()
	}
	if len(args) == 0 {
		return data.Track{}, nil, errors.New("укажите номер трека из кэша или --track")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return data.Track{}, nil, fmt.Errorf("неверный номер трека: %s", args[0])
	}

	tracks, err := app.Catalog.Cached(ctx)
	if err != nil {
		return data.Track{}, nil, fmt.Errorf("ошибка чтения кэша: %w", err)
	}
	if n > len(tracks) {
		return data.Track{}, nil, fmt.Errorf("трек #%d не найден в кэше (всего %d)", n, len(tracks))
	}
	return tracks[n-1], tracks, nil
}

func (app *Application) playTrack(ctx context.Context, track data.Track, list []data.Track) error {
	events := app.Player.Subscribe()
	defer app.Player.Unsubscribe(events)

	printTrackInfo(track)

	if err := app.Player.Play(ctx, track, list); err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n/b] - следующий/предыдущий трек\n")
	fmt.Printf("   [f/r] - перемотка вперед/назад на 10 секунд\n")
	fmt.Printf("   [x] - стоп, [q] - выход\n")
	fmt.Println()

	keys, restore := app.keyboard()
	defer restore()

	return app.playLoop(ctx, keys, events)
}

// playLoop обрабатывает нажатия и события координатора до конца списка или выхода
func (app *Application) playLoop(ctx context.Context, keys <-chan byte, events <-chan playback.Event) error {
	for {
		select {
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if app.handleKey(ctx, k) {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				app.Player.Stop()
				return nil
			}

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case playback.EventStateChanged:
				displayProgress(ev.State)
			case playback.EventTrackStarted:
				if ev.State.HasTrack() {
					fmt.Printf("\r\033[K🎵 %s - %s\n", ev.State.Track.ArtistName, ev.State.Track.Name)
				}
			case playback.EventRetrying:
				fmt.Printf("\r\033[K🔁 Повторная попытка %d: %v\n", ev.Attempt, ev.Err)
			case playback.EventPlaybackFailed:
				fmt.Printf("\r\033[K❌ Ошибка воспроизведения: %v\n", ev.Err)
				return fmt.Errorf("ошибка воспроизведения: %w", ev.Err)
			case playback.EventTrackFinished:
				if app.lastTrack(ev.State) {
					fmt.Println("\n✅ Воспроизведение завершено")
					return nil
				}
			}

		case <-ctx.Done():
			fmt.Println("\n🚫 Операция отменена")
			app.Player.Stop()
			return ctx.Err()
		}
	}
}

// handleKey выполняет команду клавиши; true означает выход
func (app *Application) handleKey(ctx context.Context, k byte) bool {
	var err error
	switch k {
	case ' ', '\n', '\r':
		app.Player.TogglePause()
	case 'n':
		err = app.Player.PlayNext(ctx)
	case 'b':
		err = app.Player.PlayPrevious(ctx)
	case 'f':
		app.Player.SeekBy(common.SeekStep)
	case 'r':
		app.Player.SeekBy(-common.SeekStep)
	case 'x':
		app.Player.Stop()
		fmt.Printf("\r\033[K⏹️  Остановлено\n")
	case 'q':
		return true
	}
	if err != nil {
		fmt.Printf("\r\033[K❌ %v\n", err)
	}
	return false
}

// lastTrack сообщает, что после доигранного трека продолжения не будет
func (app *Application) lastTrack(st playback.State) bool {
	if !app.Config.Playback.AutoAdvance || !st.HasTrack() {
		return true
	}
	return data.IndexOf(st.List, st.Track.ID) >= len(st.List)-1
}

// keyboard возвращает канал нажатий и функцию восстановления терминала
func (app *Application) keyboard() (<-chan byte, func()) {
	if app.Keys != nil {
		return app.Keys, func() {}
	}

	enableRawMode()
	keys := make(chan byte)
	go func() {
		defer close(keys)
		for {
			c, err := readSingleChar()
			if err != nil {
				return
			}
			keys <- c
		}
	}()
	return keys, disableRawMode
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Без терминала управление с клавиатуры просто не работает
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readSingleChar читает одиночный символ без ожидания Enter
func readSingleChar() (byte, error) {
	buffer := make([]byte, 1)
	_, err := os.Stdin.Read(buffer)
	return buffer[0], err
}

func printTrackInfo(t data.Track) {
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   Исполнитель: %s\n", t.ArtistName)
	fmt.Printf("   Название: %s\n", t.Name)
	if t.AlbumName != "" {
		fmt.Printf("   Альбом: %s\n", t.AlbumName)
	}
	if t.Length() > 0 {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatDuration(t.Length()))
	}
	fmt.Println()
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(st playback.State) {
	icon := "⏸️"
	switch {
	case st.Phase == playback.Loading:
		icon = "⏳"
	case st.Playing:
		icon = "▶️"
	}

	if st.Duration > 0 {
		fmt.Printf("\r%s  %.1f%% | %s / %s",
			icon,
			st.Progress()*100,
			utils.FormatClock(st.Position),
			utils.FormatClock(st.Duration))
		return
	}
	fmt.Printf("\r%s  %s", icon, utils.FormatClock(st.Position))
}
