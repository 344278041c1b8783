package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jw6ventures/calbot/internal/keyboard"
)

var (
	colorFg     = lipgloss.Color("#ebdbb2")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")

	styleCell    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorDim).Foreground(colorFg).Align(lipgloss.Center)
	styleNav     = styleCell.Foreground(colorHeader).Bold(true)
	stylePayload = lipgloss.NewStyle().Foreground(colorDim)
	styleTitle   = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
)

// RenderKeyboard draws kb as rows of bordered cells. Every cell in the
// keyboard gets the same width; shorter rows are centered.
func RenderKeyboard(kb keyboard.Keyboard, payloads bool) string {
	width := 0
	for _, row := range kb.Rows {
		for _, btn := range row {
			width = max(width, lipgloss.Width(cellText(btn, payloads)))
		}
	}
	width += 2

	rendered := make([]string, 0, len(kb.Rows))
	for i, row := range kb.Rows {
		style := styleCell
		if i == 0 {
			style = styleNav
		}
		cells := make([]string, 0, len(row))
		for _, btn := range row {
			cells = append(cells, style.Width(width).Render(cellText(btn, payloads)))
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	total := 0
	for _, r := range rendered {
		total = max(total, lipgloss.Width(r))
	}
	for i, r := range rendered {
		rendered[i] = lipgloss.PlaceHorizontal(total, lipgloss.Center, r)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func cellText(btn keyboard.Button, payloads bool) string {
	if !payloads {
		return btn.Label
	}
	return btn.Label + "\n" + stylePayload.Render(btn.Payload)
}

// Title renders a heading line.
func Title(text string) string {
	return styleTitle.Render(strings.TrimSpace(text))
}
