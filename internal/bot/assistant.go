package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// handleAssistantMessage answers free text that no dialogue or command
// claimed. Without an LLM configured the bot falls back to a static hint.
// Called from session worker - no locking needed.
func (b *Bot) handleAssistantMessage(ctx context.Context, session *UserSession, firstName, text string) {
	if b.assistant == nil {
		session.reply(MsgAssistantFallback)
		return
	}

	if err := b.store.LogConversationMessage(session.userId, 0, "user", text); err != nil {
		log.Warn().Err(err).Int64("userId", session.userId).Msg("failed to log user message")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	answer, err := b.assistant.Reply(ctx, firstName, text)
	if err != nil {
		log.Warn().Err(err).Int64("userId", session.userId).Msg("assistant reply failed")
		session.reply(MsgAssistantFallback)
		return
	}

	if err := b.store.LogConversationMessage(session.userId, 0, "assistant", answer); err != nil {
		log.Warn().Err(err).Int64("userId", session.userId).Msg("failed to log assistant message")
	}

	session.reply("%s", escapeMarkdown(answer))
}
