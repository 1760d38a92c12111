// ABOUTME: Terminal rendering of plan markdown with glamour
// ABOUTME: Style follows GLAMOUR_STYLE, defaulting to terminal detection

package plans

import (
	"github.com/charmbracelet/glamour"
)

// RenderTerminal styles markdown for a terminal of the given width.
func RenderTerminal(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// RenderWithStyle styles markdown with a named glamour style such as dark,
// light or notty. Full-screen callers use it to avoid querying the terminal
// while they own it.
func RenderWithStyle(md string, width int, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
