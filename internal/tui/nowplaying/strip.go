// Package nowplaying рисует строку текущего трека под списками
package nowplaying

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-jamplayer/internal/playback"
	"github.com/hazadus/go-jamplayer/internal/utils"
)

var stripStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#888888")).
	BorderStyle(lipgloss.NormalBorder()).
	BorderTop(true).
	PaddingLeft(2)

// View возвращает строку текущего трека или пустую строку, если трека нет
func View(st playback.State, width int) string {
	if !st.HasTrack() {
		return ""
	}

	icon := "⏸️"
	switch {
	case st.Phase == playback.Loading:
		icon = "⏳"
	case st.Playing:
		icon = "▶️"
	}

	line := fmt.Sprintf("%s %s - %s  %s / %s", icon,
		st.Track.ArtistName, st.Track.Name,
		utils.FormatClock(st.Position), utils.FormatClock(st.Duration))
	if width > 4 {
		line = utils.TruncateString(line, width-4)
	}

	style := stripStyle
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(line)
}
