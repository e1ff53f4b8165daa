package home

import (
	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

const bannerArt = `
 ███╗   ███╗ ██████╗  ██████╗██╗  ██╗████████╗
 ████╗ ████║██╔═══██╗██╔════╝██║ ██╔╝╚══██╔══╝
 ██╔████╔██║██║   ██║██║     █████╔╝    ██║
 ██║╚██╔╝██║██║   ██║██║     ██╔═██╗    ██║
 ██║ ╚═╝ ██║╚██████╔╝╚██████╗██║  ██╗   ██║
 ╚═╝     ╚═╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝   ╚═╝`

const bannerCompact = "M O C K T"

// renderBanner returns the banner in the primary color, falling back to
// the compact form when the art does not fit.
func renderBanner(width int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if compact || width < 48 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
