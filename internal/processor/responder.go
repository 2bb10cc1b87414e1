package processor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Responder turns an inbound message into a reply body. Implementations
// may call out to an external backend and fail; callers must degrade to
// FallbackReply rather than dropping the message.
type Responder interface {
	Respond(ctx context.Context, text string, messageCount int) (string, error)
}

// ContextualReply is the canned-reply ladder. Branches are evaluated
// top to bottom and the first match wins; selection depends only on the
// message count and the text.
func ContextualReply(text string, messageCount int) string {
	lower := strings.ToLower(text)
	switch {
	case messageCount == 1:
		return fmt.Sprintf("Welcome! This is your first message. I'm excited to chat with you about: %s", text)
	case messageCount < 5:
		return fmt.Sprintf("Thanks for continuing our conversation! Regarding '%s' - I'm processing this with full context awareness.", text)
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return fmt.Sprintf("Hello again! I see you've sent %d messages so far. How can I help you today?", messageCount)
	case strings.Contains(text, "?"):
		return fmt.Sprintf("That's a great question! Let me think about '%s' in the context of our previous %d messages.", text, messageCount-1)
	default:
		return fmt.Sprintf("Interesting point about '%s'. Based on our conversation history, I can provide contextual insights.", text)
	}
}

// Contextual answers locally with the reply ladder. It never fails.
type Contextual struct {
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (c Contextual) Respond(_ context.Context, text string, messageCount int) (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return fmt.Sprintf(`🤖 <b>MCP-Powered Response</b>

I received your message: "<i>%s</i>"

📊 <b>Analysis:</b>
• Message length: %d characters
• Your message #%d
• Processing timestamp: %s

💭 <b>Context-Aware Reply:</b>
%s`, text, len(text), messageCount, now().Format("15:04:05"), ContextualReply(text, messageCount)), nil
}

// FallbackReply is the fixed degraded-mode answer used when the
// configured backend fails. The inbound message always gets a reply.
func FallbackReply(text string) string {
	return fmt.Sprintf(`⚠️ <b>Fallback Mode</b>

The processing backend is currently unavailable, but I can still respond!

You said: "<i>%s</i>"

While my advanced features are temporarily offline, I'm still here to chat with you!

Try using one of my commands:
• /help - Get help information
• /info - View your profile
• /stats - See bot statistics`, text)
}
