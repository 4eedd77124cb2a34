package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateToWidth truncates text to width with an ellipsis.
func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	if width <= 3 {
		return trimToWidth(text, width)
	}
	return trimToWidth(text, width-3) + "..."
}

// trimToWidth trims text to width without an ellipsis.
func trimToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	var sb strings.Builder
	currentWidth := 0
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width {
			break
		}
		sb.WriteRune(r)
		currentWidth += rw
	}
	return sb.String()
}

// wrapToWidth word-wraps text to the given display width. Words wider than
// the width are broken mid-word.
func wrapToWidth(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			out = append(out, "")
			continue
		}

		var line strings.Builder
		lineWidth := 0
		for _, word := range strings.Fields(paragraph) {
			wordWidth := runewidth.StringWidth(word)

			for wordWidth > width {
				if lineWidth > 0 {
					out = append(out, line.String())
					line.Reset()
					lineWidth = 0
				}
				head := trimToWidth(word, width)
				out = append(out, head)
				word = word[len(head):]
				wordWidth = runewidth.StringWidth(word)
			}
			if word == "" {
				continue
			}

			sep := 0
			if lineWidth > 0 {
				sep = 1
			}
			if lineWidth+sep+wordWidth > width {
				out = append(out, line.String())
				line.Reset()
				lineWidth = 0
				sep = 0
			}
			if sep == 1 {
				line.WriteByte(' ')
				lineWidth++
			}
			line.WriteString(word)
			lineWidth += wordWidth
		}
		if lineWidth > 0 {
			out = append(out, line.String())
		}
	}
	return out
}
