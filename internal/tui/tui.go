// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-jamplayer/internal/catalog"
	"github.com/hazadus/go-jamplayer/internal/catalog/local"
	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/tui/app"
	"github.com/hazadus/go-jamplayer/internal/tui/common"
)

// App представляет основное TUI приложение
type App struct {
	player  common.Player
	sources app.Sources
}

// NewApp создает TUI поверх координатора и сервиса каталога
func NewApp(p common.Player, svc *catalog.Service, pageSize int) *App {
	return &App{player: p, sources: SourcesFromService(svc, pageSize)}
}

// SourcesFromService строит загрузчики экранов из сервиса каталога
func SourcesFromService(svc *catalog.Service, pageSize int) app.Sources {
	return app.Sources{
		Remote: svc.Search,
		Local: func(ctx context.Context, _ remote.Query) (catalog.Result, error) {
			return listResult(svc.Local(ctx))
		},
		Cached: func(ctx context.Context, q remote.Query) (catalog.Result, error) {
			tracks, err := svc.Cached(ctx)
			if err != nil {
				return catalog.Result{}, err
			}
			return catalog.Result{Tracks: catalog.FilterTracks(tracks, q.Search)}, nil
		},
		PageSize: pageSize,
	}
}

// listResult превращает отказ в доступе к медиатеке в уведомление, а не в ошибку экрана
func listResult(tracks []data.Track, err error) (catalog.Result, error) {
	if err != nil && !errors.Is(err, local.ErrPermissionDenied) {
		return catalog.Result{}, err
	}
	return catalog.Result{Tracks: tracks, Cause: err}, nil
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	model := app.NewMainModel(tuiApp.player, tuiApp.sources)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	model.Close()
	return err
}
