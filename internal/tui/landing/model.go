// Package landing содержит стартовый экран выбора источника треков
package landing

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Margin(1, 0, 1, 2)
	itemStyle     = lipgloss.NewStyle().PaddingLeft(4)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0, 0, 4)
)

// Choice - источник треков
type Choice int

const (
	Remote Choice = iota
	Local
	Cached
)

func (c Choice) String() string {
	switch c {
	case Remote:
		return "Каталог Jamendo"
	case Local:
		return "Локальная медиатека"
	case Cached:
		return "Сохраненные треки"
	default:
		return "?"
	}
}

// SourceChosenMsg отправляется при выборе источника
type SourceChosenMsg struct {
	Choice Choice
}

var choices = []Choice{Remote, Local, Cached}

// Model - модель стартового экрана
type Model struct {
	cursor int
}

// NewModel создает стартовый экран
func NewModel() *Model {
	return &Model{}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Selected возвращает выбранный пункт
func (m *Model) Selected() Choice {
	return choices[m.cursor]
}

// Update обрабатывает нажатия клавиш
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(choices)-1 {
			m.cursor++
		}
	case "1", "2", "3":
		m.cursor = int(key.String()[0] - '1')
		return m, m.choose()
	case "enter":
		return m, m.choose()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) choose() tea.Cmd {
	c := m.Selected()
	return func() tea.Msg {
		return SourceChosenMsg{Choice: c}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🎧 jamplayer"))
	b.WriteString("\n")
	for i, c := range choices {
		line := fmt.Sprintf("%d. %s", i+1, c)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓: выбор • Enter: открыть • q: выход"))
	return b.String()
}
