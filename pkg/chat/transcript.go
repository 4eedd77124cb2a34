package chat

import "time"

// ApplyDelta folds one streamed content delta into a transcript. When the
// trailing message is an assistant turn its content is extended, otherwise a
// new assistant message is started. The input slice is never mutated; callers
// holding a reference to the old transcript keep a stable view.
func ApplyDelta(messages []Message, delta string) []Message {
	n := len(messages)
	if n > 0 && messages[n-1].Role == RoleAssistant {
		out := make([]Message, n)
		copy(out, messages)
		out[n-1].Content += delta
		return out
	}
	out := make([]Message, n, n+1)
	copy(out, messages)
	return append(out, Message{
		Role:      RoleAssistant,
		Content:   delta,
		CreatedAt: time.Now(),
	})
}

// MarkIncomplete flags the trailing assistant message as cut off. It is a
// no-op when the transcript does not end with an assistant turn.
func MarkIncomplete(messages []Message) []Message {
	n := len(messages)
	if n == 0 || messages[n-1].Role != RoleAssistant {
		return messages
	}
	out := make([]Message, n)
	copy(out, messages)
	out[n-1].Incomplete = true
	return out
}
