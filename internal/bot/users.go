package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

// registerUser upserts the sender so every later interaction can assume the
// user row exists. Failures are logged only, the message still gets handled.
func (b *Bot) registerUser(from *tgbotapi.User) {
	if from == nil {
		return
	}
	err := b.store.UpsertUser(&storage.User{
		ID:        from.ID,
		FirstName: from.FirstName,
		Username:  from.UserName,
	})
	if err != nil {
		log.Warn().Err(err).Int64("userId", from.ID).Msg("failed to upsert user")
	}
}

// handlePhoneCommand asks the user to share their phone number via the
// contact button.
func (b *Bot) handlePhoneCommand(session *UserSession) {
	msg := tgbotapi.MessageConfig{
		Text:      MsgAskPhone,
		ParseMode: tgbotapi.ModeMarkdown,
	}
	msg.ReplyMarkup = tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(BtnSharePhone)),
	)
	session.replyWithMessage(msg)
}

// handleContact stores a shared contact's phone number.
// Called from session worker - no locking needed.
func (b *Bot) handleContact(session *UserSession, contact *tgbotapi.Contact) {
	// Only accept the user's own contact, not forwarded ones
	if contact.UserID != session.userId {
		return
	}
	if err := b.store.SetUserPhone(session.userId, contact.PhoneNumber); err != nil {
		session.replyWithError(err)
		return
	}
	session.replyAndRemoveCustomKeyboard(MsgPhoneSaved, escapeMarkdown(contact.PhoneNumber))
}

// isModerator reports whether the user may act on other people's listings.
func (b *Bot) isModerator(userID int64) bool {
	if userID == b.adminID {
		return true
	}
	u, err := b.store.GetUser(userID)
	if err != nil {
		return false
	}
	return u.Moderator
}
