package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	unreadStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	clearStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	detailBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

func indicatorStyle(unread int) lipgloss.Style {
	if unread > 0 {
		return unreadStyle
	}
	return clearStyle
}
