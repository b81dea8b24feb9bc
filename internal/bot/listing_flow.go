package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

// handleSellCommand starts the listing creation dialogue. Any in-flight
// dialogue is abandoned: starting a flow is last-write-wins.
// Called from session worker - no locking needed.
func (b *Bot) handleSellCommand(session *UserSession) {
	if _, ok := b.dialogs.Get(session.userId); ok {
		log.Info().Int64("userId", session.userId).Msg("abandoning in-flight dialogue on /sell")
	}
	b.dialogs.Set(session.userId, DialogEntry{Stage: StageName})
	session.reply(MsgAskName)
}

// handleDialogText advances the creation dialogue with a text answer.
// Returns true if the message was consumed by the dialogue.
// Called from session worker - no locking needed.
func (b *Bot) handleDialogText(ctx context.Context, session *UserSession, message *tgbotapi.Message) bool {
	entry, ok := b.dialogs.Get(session.userId)
	if !ok {
		return false
	}

	text := message.Text

	switch entry.Stage {
	case StageName:
		entry.Draft.Name = text
		entry.Stage = StagePrice
		b.dialogs.Set(session.userId, entry)
		session.reply(MsgAskPrice)

	case StagePrice:
		price, err := ParsePrice(text)
		if err != nil {
			// Invalid answers re-prompt without advancing
			session.reply(MsgPriceInvalid)
			return true
		}
		entry.Draft.Price = price
		entry.Stage = StageDescription
		b.dialogs.Set(session.userId, entry)
		session.reply(MsgAskDescription)

	case StageDescription:
		entry.Draft.Description = text
		entry.Stage = StagePhoto
		b.dialogs.Set(session.userId, entry)
		session.reply(MsgAskPhoto)

	case StagePhoto:
		session.reply(MsgPhotoRequired)

	case StageCity:
		entry.Draft.City = NormalizeCity(text)
		entry.Stage = StageDelivery
		b.dialogs.Set(session.userId, entry)
		b.askDelivery(session)

	case StageDelivery:
		entry.Draft.Delivery = text
		entry.Stage = StageTags
		b.dialogs.Set(session.userId, entry)
		session.replyAndRemoveCustomKeyboard(MsgAskTags)

	case StageTags:
		entry.Draft.Tags = NormalizeTags(text)
		b.finalizeListing(ctx, session, entry)

	case StageModEdit:
		b.handleModEditInput(session, entry, text)

	case StageOwnerPrice:
		b.handleOwnerPriceInput(session, entry, text)

	case StagePhotoFix:
		session.reply(MsgPhotoRequired)

	default:
		return false
	}

	return true
}

// handleDialogPhoto advances the dialogue with a photo answer.
// Returns true if the message was consumed by the dialogue.
// Called from session worker - no locking needed.
func (b *Bot) handleDialogPhoto(ctx context.Context, session *UserSession, message *tgbotapi.Message) bool {
	entry, ok := b.dialogs.Get(session.userId)
	if !ok {
		return false
	}

	// Telegram orders photo sizes ascending, keep the highest resolution
	fileID := message.Photo[len(message.Photo)-1].FileID

	switch entry.Stage {
	case StagePhoto:
		entry.Draft.PhotoFileID = fileID
		entry.Stage = StageCity
		b.dialogs.Set(session.userId, entry)
		session.reply(MsgAskCity)
		return true

	case StagePhotoFix:
		b.handlePhotoFixUpload(ctx, session, entry, fileID)
		return true
	}

	return false
}

func (b *Bot) askDelivery(session *UserSession) {
	msg := tgbotapi.MessageConfig{
		Text:      MsgAskDelivery,
		ParseMode: tgbotapi.ModeMarkdown,
	}
	msg.ReplyMarkup = tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnDeliveryNova)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnDeliveryUkr)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnDeliveryMeet)),
	)
	session.replyWithMessage(msg)
}

// finalizeListing persists the completed draft and hands it to moderation.
// On a storage failure the dialogue is left at the tags stage so the user can
// retry.
func (b *Bot) finalizeListing(ctx context.Context, session *UserSession, entry DialogEntry) {
	listing := &storage.Listing{
		SellerID:    session.userId,
		Name:        entry.Draft.Name,
		Price:       entry.Draft.Price,
		Description: entry.Draft.Description,
		PhotoFileID: entry.Draft.PhotoFileID,
		Status:      storage.StatusModeration,
		City:        entry.Draft.City,
		Delivery:    entry.Draft.Delivery,
		Tags:        entry.Draft.Tags,
	}

	id, err := b.store.CreateListing(listing)
	if err != nil {
		b.dialogs.Set(session.userId, entry)
		session.replyWithError(err)
		return
	}
	listing.ID = id

	b.dialogs.Clear(session.userId)
	session.reply(MsgListingSubmitted, escapeMarkdown(listing.Name))

	b.sendModerationCard(ctx, listing)
}

// handleCancelCommand aborts whatever dialogue is in progress.
// Called from session worker - no locking needed.
func (b *Bot) handleCancelCommand(session *UserSession) {
	if _, ok := b.dialogs.Get(session.userId); !ok {
		session.reply(MsgNothingToCancel)
		return
	}
	b.dialogs.Clear(session.userId)
	log.Info().Int64("userId", session.userId).Msg("dialogue cancelled")
	session.replyAndRemoveCustomKeyboard(MsgCancelled)
}
