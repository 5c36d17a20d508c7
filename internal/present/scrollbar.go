package present

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// scrollbar renders a vertical bar exactly height rows tall for a window of
// height rows at offset within content rows. When everything fits, the
// thumb fills the track.
func scrollbar(height, content, offset int, thumb, track lipgloss.Style) string {
	if height <= 0 {
		return ""
	}
	top, size := 0, height
	if content > height {
		maxOffset := content - height
		offset = max(0, min(offset, maxOffset))
		// thumb height ~ height^2 / content
		size = max(1, min(height, height*height/content))
		if maxTop := height - size; maxTop > 0 {
			top = offset * maxTop / maxOffset
		}
	}

	var b strings.Builder
	for i := range height {
		if top <= i && i < top+size {
			// a non-breaking space keeps the background escape codes
			b.WriteString(thumb.Render("\u00a0"))
		} else {
			b.WriteString(track.Render("│"))
		}
		if i < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
