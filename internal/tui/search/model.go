// Package search содержит форму поиска по каталогу Jamendo
package search

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-jamplayer/internal/catalog/remote"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// SubmitMsg отправляется при запуске поиска
type SubmitMsg struct {
	Query remote.Query
}

// GoBackMsg отправляется при отмене поиска
type GoBackMsg struct{}

const (
	termField = iota
	tagsField
	numFields
)

// Model - модель формы поиска
type Model struct {
	inputs     []textinput.Model
	focusIndex int
	limit      int
}

// NewModel создает форму, заполненную предыдущим запросом
func NewModel(prev remote.Query) *Model {
	inputs := make([]textinput.Model, numFields)

	inputs[termField] = textinput.New()
	inputs[termField].Placeholder = "Исполнитель, трек или альбом"
	inputs[termField].SetValue(prev.Search)

	inputs[tagsField] = textinput.New()
	inputs[tagsField].Placeholder = "Жанры через пробел: rock jazz"
	inputs[tagsField].SetValue(strings.Join(prev.Tags, " "))

	m := &Model{inputs: inputs, limit: prev.Limit}
	m.focus(termField)
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Query собирает запрос из полей формы; смещение сбрасывается на первую страницу
func (m *Model) Query() remote.Query {
	return remote.Query{
		Search: strings.TrimSpace(m.inputs[termField].Value()),
		Tags:   strings.Fields(m.inputs[tagsField].Value()),
		Limit:  m.limit,
	}
}

// Update обрабатывает сообщения
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "ctrl+s":
			return m, m.submit()

		case "enter":
			if m.focusIndex == numFields-1 {
				return m, m.submit()
			}
			return m, m.focus(m.focusIndex + 1)

		case "tab", "down":
			return m, m.focus((m.focusIndex + 1) % numFields)

		case "shift+tab", "up":
			return m, m.focus((m.focusIndex + numFields - 1) % numFields)
		}

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 20
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	q := m.Query()
	return func() tea.Msg {
		return SubmitMsg{Query: q}
	}
}

func (m *Model) focus(idx int) tea.Cmd {
	m.focusIndex = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == idx {
			cmd = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle
			continue
		}
		m.inputs[i].Blur()
		m.inputs[i].PromptStyle = blurredStyle
		m.inputs[i].TextStyle = blurredStyle
	}
	return cmd
}

// View отображает форму
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🔎 Поиск в Jamendo"))
	b.WriteString("\n\n")

	labels := []string{"Запрос:", "Жанры:"}
	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("Tab: следующее поле • Enter: искать • Esc: отмена"))
	return b.String()
}
