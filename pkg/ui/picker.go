package ui

import (
	"fmt"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/ui/styles"
)

const pickerFooter = "Enter Open | Ctrl+D Delete | Esc Close"

// conversationPicker is the overlay for switching between stored
// conversations.
type conversationPicker struct {
	conversations []chat.Conversation
	selected      int
	visible       bool
}

func (p *conversationPicker) show(conversations []chat.Conversation) {
	p.conversations = conversations
	p.selected = 0
	p.visible = true
}

func (p *conversationPicker) hide() {
	p.visible = false
}

func (p *conversationPicker) moveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

func (p *conversationPicker) moveDown() {
	if p.selected < len(p.conversations)-1 {
		p.selected++
	}
}

// current returns the selected conversation, if any.
func (p *conversationPicker) current() (chat.Conversation, bool) {
	if p.selected < 0 || p.selected >= len(p.conversations) {
		return chat.Conversation{}, false
	}
	return p.conversations[p.selected], true
}

// remove drops the selected conversation from the list, keeping the
// selection in range.
func (p *conversationPicker) remove() {
	if p.selected < 0 || p.selected >= len(p.conversations) {
		return
	}
	p.conversations = append(p.conversations[:p.selected], p.conversations[p.selected+1:]...)
	if p.selected >= len(p.conversations) && p.selected > 0 {
		p.selected--
	}
}

func (p *conversationPicker) view(width int) string {
	if !p.visible {
		return ""
	}
	innerWidth := width - 6
	if innerWidth < 10 {
		innerWidth = 10
	}

	lines := []string{styles.TitleStyle.Render("Conversations")}
	if len(p.conversations) == 0 {
		lines = append(lines, styles.MutedStyle.Render("no saved conversations"))
	}
	for i, conv := range p.conversations {
		label := conv.Title
		if label == "" {
			label = conv.ID
		}
		label = fmt.Sprintf("%s  %s", label, conv.UpdatedAt.Format("Jan 2 15:04"))
		label = truncateToWidth(label, innerWidth)
		if i == p.selected {
			lines = append(lines, styles.PickerSelectedStyle.Render("> "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	lines = append(lines, styles.MutedStyle.Render(truncateToWidth(pickerFooter, innerWidth)))

	var content string
	for i, line := range lines {
		if i > 0 {
			content += "\n"
		}
		content += line
	}
	return styles.PickerBoxStyle.Render(content)
}
