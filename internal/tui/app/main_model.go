// Package app содержит основную логику TUI приложения
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/tui/common"
	"github.com/hazadus/go-jamplayer/internal/tui/landing"
	"github.com/hazadus/go-jamplayer/internal/tui/nowplaying"
	tuiPlayer "github.com/hazadus/go-jamplayer/internal/tui/player"
	"github.com/hazadus/go-jamplayer/internal/tui/search"
	"github.com/hazadus/go-jamplayer/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

const (
	// LandingScreen - выбор источника
	LandingScreen ScreenType = iota
	// BrowseScreen - список треков
	BrowseScreen
	// SearchScreen - форма поиска
	SearchScreen
	// PlayerScreen - полноэкранный плеер
	PlayerScreen
)

// Sources - загрузчики треков для каждого источника
type Sources struct {
	Remote   tracklist.Fetcher
	Local    tracklist.Fetcher
	Cached   tracklist.Fetcher
	PageSize int
}

// MainModel представляет главную модель TUI
type MainModel struct {
	player        common.Player
	sources       Sources
	events        <-chan playback.Event
	state         playback.State
	currentScreen ScreenType
	size          tea.WindowSizeMsg
	landingModel  *landing.Model
	browseModel   *tracklist.Model
	searchModel   *search.Model
	playerModel   *tuiPlayer.Model
}

// NewMainModel создает главную модель
func NewMainModel(p common.Player, sources Sources) *MainModel {
	return &MainModel{
		player:        p,
		sources:       sources,
		state:         p.State(),
		currentScreen: LandingScreen,
		landingModel:  landing.NewModel(),
	}
}

// Init подписывается на события координатора
func (m *MainModel) Init() tea.Cmd {
	m.events = m.player.Subscribe()
	return tea.Batch(m.landingModel.Init(), common.ListenEvents(m.events))
}

// CurrentScreen возвращает активный экран
func (m *MainModel) CurrentScreen() ScreenType {
	return m.currentScreen
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.player.Stop()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.size = msg

	case common.EventMsg:
		m.state = msg.Event.State
		cmd := m.forward(msg)
		return m, tea.Batch(cmd, common.ListenEvents(m.events))

	case common.SubscriptionClosedMsg:
		return m, nil

	case landing.SourceChosenMsg:
		return m, m.openBrowse(msg.Choice, remote.Query{Limit: m.sources.PageSize})

	case tracklist.LoadedMsg:
		// Страница могла догрузиться, пока открыт другой экран
		if m.browseModel == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.browseModel, cmd = m.browseModel.Update(msg)
		return m, cmd

	case tracklist.GoBackMsg:
		m.currentScreen = LandingScreen
		m.browseModel = nil
		return m, nil

	case tracklist.OpenSearchMsg:
		m.searchModel = search.NewModel(msg.Query)
		m.currentScreen = SearchScreen
		return m, tea.Batch(m.searchModel.Init(), m.resize())

	case search.SubmitMsg:
		m.searchModel = nil
		return m, m.openBrowse(landing.Remote, msg.Query)

	case search.GoBackMsg:
		m.searchModel = nil
		m.currentScreen = BrowseScreen
		return m, nil

	case tracklist.OpenPlayerMsg:
		m.playerModel = tuiPlayer.NewModel(m.player, msg.Params)
		m.currentScreen = PlayerScreen
		return m, tea.Batch(m.playerModel.Init(), m.resize())

	case tuiPlayer.GoBackMsg:
		m.playerModel = nil
		m.currentScreen = BrowseScreen
		if m.browseModel == nil {
			m.currentScreen = LandingScreen
		}
		return m, nil
	}

	return m, m.forward(msg)
}

func (m *MainModel) openBrowse(choice landing.Choice, q remote.Query) tea.Cmd {
	fetch, pageable := m.sources.Local, false
	switch choice {
	case landing.Remote:
		fetch, pageable = m.sources.Remote, true
	case landing.Cached:
		fetch = m.sources.Cached
	}

	m.browseModel = tracklist.NewModel(choice.String(), m.player, fetch, q, pageable)
	m.currentScreen = BrowseScreen
	return tea.Batch(m.browseModel.Init(), m.resize())
}

// resize отправляет новому экрану последний известный размер окна
func (m *MainModel) resize() tea.Cmd {
	if m.size.Width == 0 {
		return nil
	}
	size := m.size
	return func() tea.Msg { return size }
}

// forward передает сообщение активному экрану
func (m *MainModel) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.currentScreen {
	case LandingScreen:
		m.landingModel, cmd = m.landingModel.Update(msg)
	case BrowseScreen:
		if m.browseModel != nil {
			m.browseModel, cmd = m.browseModel.Update(msg)
		}
	case SearchScreen:
		if m.searchModel != nil {
			m.searchModel, cmd = m.searchModel.Update(msg)
		}
	case PlayerScreen:
		if m.playerModel != nil {
			m.playerModel, cmd = m.playerModel.Update(msg)
		}
	}
	return cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case LandingScreen:
		return withStrip(m.landingModel.View(), m.state, m.size.Width)

	case BrowseScreen:
		if m.browseModel != nil {
			return withStrip(m.browseModel.View(), m.state, m.size.Width)
		}
		return "Ошибка: список треков не инициализирован"

	case SearchScreen:
		if m.searchModel != nil {
			return m.searchModel.View()
		}
		return "Ошибка: форма поиска не инициализирована"

	case PlayerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	default:
		return "Неизвестный экран"
	}
}

func withStrip(view string, st playback.State, width int) string {
	strip := nowplaying.View(st, width)
	if strip == "" {
		return view
	}
	return view + "\n" + strip
}

// Close отписывается от событий координатора
func (m *MainModel) Close() {
	if m.events != nil {
		m.player.Unsubscribe(m.events)
		m.events = nil
	}
}
