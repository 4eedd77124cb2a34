package ui

import (
	"strings"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/ui/styles"
)

const incompleteMarker = "[reply interrupted]"

// renderTranscript lays out the conversation for the viewport. Each message
// gets a styled label line followed by its wrapped body; interrupted replies
// carry a trailing marker.
func renderTranscript(messages []chat.Message, simName string, width int) string {
	if width <= 0 {
		return ""
	}
	if simName == "" {
		simName = "Sim"
	}

	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		switch msg.Role {
		case chat.RoleUser:
			sb.WriteString(styles.UserLabelStyle.Render("You"))
		default:
			sb.WriteString(styles.SimLabelStyle.Render(simName))
		}
		sb.WriteString("\n")

		body := wrapToWidth(msg.Content, width)
		for j, line := range body {
			if j > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(line)
		}
		if msg.Incomplete {
			if len(body) > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(styles.IncompleteStyle.Render(incompleteMarker))
		}
	}
	return sb.String()
}
