package menu

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles are bound to the output's renderer so colour is dropped when the
// output is not a terminal.
type styles struct {
	banner  lipgloss.Style
	title   lipgloss.Style
	prompt  lipgloss.Style
	option  lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		banner: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 2),
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		prompt:  r.NewStyle().Foreground(lipgloss.Color("12")),
		option:  r.NewStyle().PaddingLeft(2),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		err:     r.NewStyle().Foreground(lipgloss.Color("9")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		muted:   r.NewStyle().Faint(true),
	}
}
