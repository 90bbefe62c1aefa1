// Package tracklist содержит экран списка треков для TUI
package tracklist

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-jamplayer/internal/catalog"
	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/tui/common"
	"github.com/hazadus/go-jamplayer/internal/tui/params"
	"github.com/hazadus/go-jamplayer/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	currentItemStyle  = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("42"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	noticeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).PaddingLeft(4)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(4)
)

// Fetcher загружает страницу треков
type Fetcher func(ctx context.Context, q remote.Query) (catalog.Result, error)

// GoBackMsg отправляется для возврата на стартовый экран
type GoBackMsg struct{}

// OpenPlayerMsg открывает полноэкранный плеер
type OpenPlayerMsg struct {
	Params params.Player
}

// OpenSearchMsg открывает форму поиска
type OpenSearchMsg struct {
	Query remote.Query
}

// LoadedMsg - результат загрузки страницы
type LoadedMsg struct {
	Result catalog.Result
	Query  remote.Query
	Append bool
	Err    error
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track data.Track
}

func (i trackItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.track.ArtistName, i.track.Name, i.track.AlbumName)
}

// trackItemDelegate рисует строки списка и отмечает текущий трек
type trackItemDelegate struct {
	currentID *string
}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	// Исполнитель | Название | Альбом | Длительность
	str := fmt.Sprintf("%-20s %-40s %-24s %s",
		utils.TruncateString(i.track.ArtistName, 20),
		utils.TruncateString(i.track.Name, 40),
		utils.TruncateString(i.track.AlbumName, 24),
		utils.FormatClock(i.track.Length()))

	current := d.currentID != nil && *d.currentID != "" && *d.currentID == i.track.ID
	fn := itemStyle.Render
	switch {
	case index == m.Index():
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	case current:
		fn = func(s ...string) string {
			return currentItemStyle.Render("♪ " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model - экран списка треков
type Model struct {
	list      list.Model
	player    common.Player
	fetch     Fetcher
	title     string
	query     remote.Query
	pageable  bool
	loading   bool
	fromCache bool
	notice    string
	err       error
	currentID *string
}

// NewModel создает экран списка. pageable включает поиск и постраничную загрузку.
func NewModel(title string, p common.Player, fetch Fetcher, q remote.Query, pageable bool) *Model {
	if q.Limit <= 0 {
		q.Limit = remote.DefaultLimit
	}

	currentID := new(string)
	if st := p.State(); st.HasTrack() {
		*currentID = st.Track.ID
	}

	l := list.New(nil, trackItemDelegate{currentID: currentID}, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.KeyMap.Quit.SetEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		list:      l,
		player:    p,
		fetch:     fetch,
		title:     title,
		query:     q,
		pageable:  pageable,
		currentID: currentID,
	}
}

// Init загружает первую страницу
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.load(m.query, false)
}

func (m *Model) load(q remote.Query, appendPage bool) tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		res, err := fetch(context.Background(), q)
		return LoadedMsg{Result: res, Query: q, Append: appendPage, Err: err}
	}
}

// Tracks возвращает все загруженные треки
func (m *Model) Tracks() []data.Track {
	return itemsToTracks(m.list.Items())
}

// Visible возвращает треки, видимые с учетом фильтра
func (m *Model) Visible() []data.Track {
	return itemsToTracks(m.list.VisibleItems())
}

func itemsToTracks(items []list.Item) []data.Track {
	tracks := make([]data.Track, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(trackItem); ok {
			tracks = append(tracks, ti.track)
		}
	}
	return tracks
}

func (m *Model) setTracks(tracks []data.Track) tea.Cmd {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return m.list.SetItems(items)
}

func (m *Model) selected() (data.Track, bool) {
	item, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return data.Track{}, false
	}
	return item.track, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6) // Место для справки и строки текущего трека
		return m, nil

	case LoadedMsg:
		return m, m.loaded(msg)

	case common.EventMsg:
		m.onEvent(msg.Event)
		return m, nil

	case common.PlayErrorMsg:
		m.notice = ""
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		m.err = nil
		return common.PlayCmd(m.player, t, m.Visible()), true

	case "esc":
		if m.list.FilterState() == list.FilterApplied {
			return nil, false
		}
		return func() tea.Msg { return GoBackMsg{} }, true

	case "q":
		return func() tea.Msg { return GoBackMsg{} }, true

	case " ":
		m.player.TogglePause()
		return nil, true

	case "x":
		m.player.Stop()
		return nil, true

	case "s":
		if !m.pageable {
			return nil, true
		}
		q := m.query
		return func() tea.Msg { return OpenSearchMsg{Query: q} }, true

	case "n", "m":
		if !m.pageable || m.loading {
			return nil, true
		}
		next := m.query
		next.Offset += next.Limit
		m.loading = true
		return m.load(next, true), true

	case "p":
		return m.openPlayer(), true
	}
	return nil, false
}

func (m *Model) openPlayer() tea.Cmd {
	var (
		track  data.Track
		tracks []data.Track
	)
	if st := m.player.State(); st.HasTrack() {
		track, tracks = *st.Track, st.List
	} else {
		t, ok := m.selected()
		if !ok {
			return nil
		}
		track, tracks = t, m.Visible()
	}

	p, err := params.Encode(track, tracks)
	if err != nil {
		m.err = err
		return nil
	}
	return func() tea.Msg { return OpenPlayerMsg{Params: p} }
}

func (m *Model) loaded(msg LoadedMsg) tea.Cmd {
	m.loading = false
	if msg.Err != nil {
		m.err = msg.Err
		return nil
	}

	m.err = nil
	m.query = msg.Query
	m.fromCache = msg.Result.FromCache
	m.notice = catalog.Notice(msg.Result.Cause)

	title := m.title
	if m.fromCache {
		title += " (офлайн)"
	}
	m.list.Title = title

	if msg.Append {
		if len(msg.Result.Tracks) == 0 {
			m.notice = "Больше треков нет"
			return nil
		}
		return m.setTracks(data.MergeTracks(m.Tracks(), msg.Result.Tracks))
	}
	return m.setTracks(msg.Result.Tracks)
}

func (m *Model) onEvent(ev playback.Event) {
	if ev.State.HasTrack() {
		*m.currentID = ev.State.Track.ID
	} else {
		*m.currentID = ""
	}

	switch ev.Type {
	case playback.EventRetrying:
		m.notice = fmt.Sprintf("Повторная попытка воспроизведения (%d)...", ev.Attempt)
	case playback.EventPlaybackFailed:
		m.notice = ""
		m.err = ev.Err
	case playback.EventTrackStarted:
		m.notice = ""
		m.err = nil
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(noticeStyle.Render("Загрузка..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ Ошибка: %v", m.err)))
		b.WriteString("\n")
	case m.notice != "":
		b.WriteString(noticeStyle.Render("⚠️  " + m.notice))
		b.WriteString("\n")
	}

	help := "Enter: воспроизвести • /: фильтр • Пробел: пауза • p: плеер • q: назад"
	if m.pageable {
		help = "Enter: воспроизвести • /: фильтр • s: поиск • n: еще • p: плеер • q: назад"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
