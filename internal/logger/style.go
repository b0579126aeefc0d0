package logger

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles colours user-facing messages. Each renderer inspects its own
// writer, so output sent to a file or pipe stays free of escape codes.
type styles struct {
	info    lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
}

func newStyles(stdout, stderr io.Writer) styles {
	out := lipgloss.NewRenderer(stdout)
	errOut := lipgloss.NewRenderer(stderr)

	return styles{
		info:    plain(out).Foreground(lipgloss.Color("#5B8DEF")),
		warning: plain(out).Foreground(lipgloss.Color("#E5C07B")),
		success: plain(out).Foreground(lipgloss.Color("#98C379")),
		err:     plain(errOut).Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
}

func plain(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().TabWidth(lipgloss.NoTabConversion)
}
