// Package player содержит полноэкранный плеер для TUI
package player

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/tui/common"
	"github.com/hazadus/go-jamplayer/internal/tui/params"
	"github.com/hazadus/go-jamplayer/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	artworkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// backDelay - пауза перед возвратом с экрана ошибки параметров
const backDelay = 2 * time.Second

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// Model - модель полноэкранного плеера
type Model struct {
	player      common.Player
	track       data.Track
	list        []data.Track
	state       playback.State
	progressBar progress.Model
	paramsErr   error // Параметры перехода не разобраны
	playErr     error
	notice      string
	width       int
}

// NewModel создает плеер из параметров перехода
func NewModel(p common.Player, prm params.Player) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	m := &Model{
		player:      p,
		progressBar: prog,
		state:       p.State(),
	}

	track, list, err := prm.Decode()
	if err != nil {
		m.paramsErr = err
		return m
	}
	m.track = track
	m.list = list
	return m
}

// Init запускает трек, если он еще не текущий
func (m *Model) Init() tea.Cmd {
	if m.paramsErr != nil {
		return tea.Tick(backDelay, func(time.Time) tea.Msg { return GoBackMsg{} })
	}
	if m.state.HasTrack() && m.state.Track.ID == m.track.ID {
		return m.progressBar.SetPercent(m.state.Progress())
	}
	return common.PlayCmd(m.player, m.track, m.list)
}

// Track возвращает отображаемый трек
func (m *Model) Track() data.Track {
	return m.track
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case common.EventMsg:
		return m, m.onEvent(msg.Event)

	case common.PlayErrorMsg:
		m.playErr = msg.Err
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return func() tea.Msg { return GoBackMsg{} }
	}

	if m.paramsErr != nil {
		return nil
	}

	switch msg.String() {
	case " ":
		m.player.TogglePause()
	case "n":
		return common.StepCmd(m.player, 1)
	case "b":
		return common.StepCmd(m.player, -1)
	case "left":
		m.player.SeekBy(-common.SeekStep)
	case "right":
		m.player.SeekBy(common.SeekStep)
	case "x":
		m.player.Stop()
	}
	return nil
}

func (m *Model) onEvent(ev playback.Event) tea.Cmd {
	m.state = ev.State
	if ev.State.HasTrack() {
		m.track = *ev.State.Track
	}

	switch ev.Type {
	case playback.EventTrackStarted:
		m.playErr = nil
		m.notice = ""
	case playback.EventRetrying:
		m.notice = fmt.Sprintf("Повторная попытка (%d)...", ev.Attempt)
	case playback.EventPlaybackFailed:
		m.notice = ""
		m.playErr = ev.Err
	case playback.EventTrackFinished:
		m.notice = "Трек доигран"
	}
	return m.progressBar.SetPercent(m.state.Progress())
}

// View отображает модель
func (m *Model) View() string {
	if m.paramsErr != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Не удалось открыть плеер"),
			errorStyle.Render(m.paramsErr.Error()),
			controlsStyle.Render("Возврат к списку..."),
		)
	}

	title := titleStyle.Render("🎵 Воспроизведение")

	album := m.track.AlbumName
	if album == "" {
		album = "-"
	}
	trackInfo := trackInfoStyle.Render(fmt.Sprintf(
		"🎤 %s\n🎵 %s\n💿 %s",
		m.track.ArtistName,
		m.track.Name,
		album,
	))

	statusText := statusStyle.Render(formatStatus(m.state))

	progressView := m.progressBar.View()
	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatClock(m.state.Position),
		utils.FormatClock(m.duration()),
	)

	out := fmt.Sprintf(
		"%s\n\n%s\n%s\n\n%s\n\n%s\n%s",
		title,
		artwork(m.track),
		trackInfo,
		statusText,
		progressView,
		timeText,
	)

	if m.playErr != nil {
		out += "\n\n" + errorStyle.Render(fmt.Sprintf("❌ Ошибка воспроизведения: %v", m.playErr))
	} else if m.notice != "" {
		out += "\n\n" + trackInfoStyle.Render(m.notice)
	}

	controls := controlsStyle.Render(
		"Пробел: пауза • n/b: следующий/предыдущий • ←/→: перемотка • x: стоп • q/esc: назад",
	)
	return out + "\n\n" + controls
}

// duration возвращает длительность из состояния или из метаданных трека
func (m *Model) duration() time.Duration {
	if m.state.Duration > 0 {
		return m.state.Duration
	}
	return m.track.Length()
}

func artwork(t data.Track) string {
	if data.ValidImageURI(t.Image) {
		return artworkStyle.Render("🖼  " + utils.TruncateString(t.Image, 60))
	}
	return artworkStyle.Render("🖼  нет обложки")
}

func formatStatus(st playback.State) string {
	switch {
	case st.Phase == playback.Loading:
		return "⏳ Загрузка"
	case st.Playing:
		return "▶️ Воспроизведение"
	case st.Phase == playback.Paused:
		return "⏸️ Пауза"
	default:
		return "⏹️ Остановлено"
	}
}
