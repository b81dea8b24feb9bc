package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

var fieldLabels = map[EditField]string{
	EditName:        "назва",
	EditDescription: "опис",
	EditPrice:       "ціна",
	EditCity:        "місто",
	EditDelivery:    "доставка",
	EditTags:        "теги",
}

// sendModerationCard posts the listing with its action keyboard to the admin
// chat. Failures are logged only: the listing is already persisted in
// moderation status and a moderator can still find it.
func (b *Bot) sendModerationCard(ctx context.Context, l *storage.Listing) {
	seller, err := b.store.GetUser(l.SellerID)
	if err != nil {
		log.Warn().Err(err).Int64("sellerId", l.SellerID).Msg("failed to load seller for moderation card")
	}

	var sb strings.Builder
	sb.WriteString(MsgModNewListing)
	sb.WriteString("\n\n")
	sb.WriteString(ComposeBroadcast(l, seller))
	if seller != nil {
		sb.WriteString(fmt.Sprintf("\n\nПродавець: %s (id %d)", seller.FirstName, seller.ID))
	}
	if tags := b.suggestTags(ctx, l); tags != "" {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf(MsgModSuggestedTags, tags))
	}

	keyboard := moderationKeyboard(l.ID)

	var sendErr error
	if l.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(b.adminID, tgbotapi.FileID(l.PhotoFileID))
		photo.Caption = sb.String()
		photo.ReplyMarkup = keyboard
		_, sendErr = b.tg.Send(photo)
	} else {
		msg := tgbotapi.NewMessage(b.adminID, sb.String())
		msg.ReplyMarkup = keyboard
		_, sendErr = b.tg.Send(msg)
	}
	if sendErr != nil {
		log.Error().Err(sendErr).Int64("listingId", l.ID).Msg("failed to send moderation card")
	}
}

// suggestTags asks the LLM for hashtag suggestions. Best effort: any failure
// is logged and the card goes out without suggestions.
func (b *Bot) suggestTags(ctx context.Context, l *storage.Listing) string {
	if b.assistant == nil {
		return ""
	}

	var photo []byte
	if l.PhotoFileID != "" {
		data, err := downloadFileID(b.tg.GetFileDirectURL, l.PhotoFileID)
		if err != nil {
			log.Warn().Err(err).Int64("listingId", l.ID).Msg("failed to download photo for tag suggestion")
		} else {
			photo = data
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	tags, err := b.assistant.SuggestTags(ctx, photo, l.Name, l.Description)
	if err != nil {
		log.Warn().Err(err).Int64("listingId", l.ID).Msg("tag suggestion failed")
		return ""
	}
	return strings.Join(tags, " ")
}

func moderationKeyboard(listingID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnApprove, callbackData(ActionApprove, listingID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnReject, callbackData(ActionReject, listingID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnEditName, editCallbackData(EditName, listingID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnEditDescr, editCallbackData(EditDescription, listingID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnEditPrice, editCallbackData(EditPrice, listingID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnEditCity, editCallbackData(EditCity, listingID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnEditDelivery, editCallbackData(EditDelivery, listingID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnEditTags, editCallbackData(EditTags, listingID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnPhotoFix, callbackData(ActionPhotoFix, listingID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnContactSeller, callbackData(ActionContactSeller, listingID)),
		),
	)
}

// handleApprove publishes an approved listing. The channel post is created
// first and the status flips to active only after the post exists, so an
// active listing always has a live post.
func (b *Bot) handleApprove(session *UserSession, action Action) {
	l, ok := b.loadListing(session, action.ListingID)
	if !ok {
		return
	}
	if l.Status == storage.StatusActive {
		session.reply(MsgModAlreadyActive)
		return
	}
	if l.Status != storage.StatusModeration {
		session.reply(MsgModNotInModeration)
		return
	}

	seller, err := b.store.GetUser(l.SellerID)
	if err != nil {
		log.Warn().Err(err).Int64("sellerId", l.SellerID).Msg("failed to load seller for publish")
	}

	msgID, err := b.publishToChannel(l, seller)
	if err != nil {
		session.replyWithError(err)
		return
	}
	if err := b.store.SetListingPublished(l.ID, msgID); err != nil {
		// Roll the post back so the channel doesn't show a listing that is
		// still in moderation
		l.ChannelMessageID = msgID
		b.deleteChannelPost(l)
		session.replyWithError(err)
		return
	}

	session.reply(MsgModApproved)
	b.notifyUser(l.SellerID, MsgSellerApproved, escapeMarkdown(l.Name))
}

// handleReject declines a listing in moderation.
func (b *Bot) handleReject(session *UserSession, action Action) {
	l, ok := b.loadListing(session, action.ListingID)
	if !ok {
		return
	}
	if l.Status != storage.StatusModeration {
		session.reply(MsgModNotInModeration)
		return
	}

	if err := b.store.SetListingStatus(l.ID, storage.StatusRejected); err != nil {
		session.replyWithError(err)
		return
	}

	session.reply(MsgModRejected)
	b.notifyUser(l.SellerID, MsgSellerRejected, escapeMarkdown(l.Name))
}

// handlePhotoFix asks the seller for a replacement photo. The seller's next
// photo message lands in handlePhotoFixUpload.
func (b *Bot) handlePhotoFix(session *UserSession, action Action) {
	l, ok := b.loadListing(session, action.ListingID)
	if !ok {
		return
	}
	if l.Status != storage.StatusModeration {
		session.reply(MsgModNotInModeration)
		return
	}

	b.dialogs.Set(l.SellerID, DialogEntry{Stage: StagePhotoFix, ListingID: l.ID})
	b.notifyUser(l.SellerID, MsgSellerPhotoFix, escapeMarkdown(l.Name))
	session.reply(MsgModPhotoFixAsked)
}

// handlePhotoFixUpload stores the seller's replacement photo and puts the
// listing back through moderation with a fresh card.
func (b *Bot) handlePhotoFixUpload(ctx context.Context, session *UserSession, entry DialogEntry, fileID string) {
	l, ok := b.loadListing(session, entry.ListingID)
	if !ok {
		b.dialogs.Clear(session.userId)
		return
	}

	if err := b.store.SetListingPhoto(l.ID, fileID); err != nil {
		session.replyWithError(err)
		return
	}
	if err := b.store.SetListingStatus(l.ID, storage.StatusModeration); err != nil {
		session.replyWithError(err)
		return
	}

	b.dialogs.Clear(session.userId)
	session.reply(MsgSellerPhotoFixDone)

	l.PhotoFileID = fileID
	l.Status = storage.StatusModeration
	b.sendModerationCard(ctx, l)
}

// handleContactSeller sends the moderator the seller's contact details.
func (b *Bot) handleContactSeller(session *UserSession, action Action) {
	l, ok := b.loadListing(session, action.ListingID)
	if !ok {
		return
	}
	seller, err := b.store.GetUser(l.SellerID)
	if err != nil {
		session.replyWithError(err)
		return
	}
	contact := sellerContact(seller)
	if contact == "" {
		session.reply(MsgSellerNoContact)
		return
	}
	session.reply(MsgSellerContact, escapeMarkdown(contact))
}

// handleModEditStart begins the single-field edit sub-flow for a moderator.
func (b *Bot) handleModEditStart(session *UserSession, action Action) {
	if _, ok := b.loadListing(session, action.ListingID); !ok {
		return
	}
	b.dialogs.Set(session.userId, DialogEntry{
		Stage:     StageModEdit,
		ListingID: action.ListingID,
		Field:     action.Field,
	})
	session.reply(MsgModEditPrompt, fieldLabels[action.Field])
}

// handleModEditInput applies the moderator's replacement value. The listing's
// status is deliberately untouched: editing is not a verdict.
func (b *Bot) handleModEditInput(session *UserSession, entry DialogEntry, text string) {
	var err error
	switch entry.Field {
	case EditPrice:
		price, perr := ParsePrice(text)
		if perr != nil {
			session.reply(MsgPriceInvalid)
			return
		}
		err = b.store.UpdateListingPrice(entry.ListingID, price)
	case EditCity:
		err = b.store.UpdateListingField(entry.ListingID, storage.FieldCity, NormalizeCity(text))
	case EditTags:
		err = b.store.UpdateListingField(entry.ListingID, storage.FieldTags, NormalizeTags(text))
	case EditName:
		err = b.store.UpdateListingField(entry.ListingID, storage.FieldName, text)
	case EditDescription:
		err = b.store.UpdateListingField(entry.ListingID, storage.FieldDescription, text)
	case EditDelivery:
		err = b.store.UpdateListingField(entry.ListingID, storage.FieldDelivery, text)
	default:
		b.dialogs.Clear(session.userId)
		session.replyWithError(fmt.Errorf("unknown edit field: %s", entry.Field))
		return
	}

	if err == storage.ErrNotFound {
		b.dialogs.Clear(session.userId)
		session.reply(MsgListingNotFound)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}

	b.dialogs.Clear(session.userId)
	session.reply(MsgModEditDone, fieldLabels[entry.Field])
}

// loadListing fetches a listing and handles the not-found and failure notices
// in one place. Returns false if the caller should stop.
func (b *Bot) loadListing(session *UserSession, listingID int64) (*storage.Listing, bool) {
	l, err := b.store.GetListing(listingID)
	if err == storage.ErrNotFound {
		session.reply(MsgListingNotFound)
		return nil, false
	}
	if err != nil {
		session.replyWithError(err)
		return nil, false
	}
	return l, true
}

// notifyUser sends a message to a user outside the current session, e.g. the
// seller when a moderator acts on their listing. Failures are logged only.
func (b *Bot) notifyUser(userID int64, text string, a ...any) {
	msg := tgbotapi.NewMessage(userID, formatReplyText(text, a...))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.tg.Send(msg); err != nil {
		log.Warn().Err(err).Int64("userId", userID).Msg("failed to notify user")
	}
}
