package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

func statusLabel(status storage.Status) string {
	switch status {
	case storage.StatusModeration:
		return "🕓 на модерації"
	case storage.StatusActive:
		return "✅ активне"
	case storage.StatusRejected:
		return "❌ відхилено"
	case storage.StatusSold:
		return "💰 продано"
	default:
		return string(status)
	}
}

// handleMyCommand lists the user's listings with a button per listing.
// Called from session worker - no locking needed.
func (b *Bot) handleMyCommand(session *UserSession) {
	listings, err := b.store.GetUserListings(session.userId)
	if err != nil {
		session.replyWithError(err)
		return
	}
	if len(listings) == 0 {
		session.reply(MsgNoListings)
		return
	}

	var sb strings.Builder
	sb.WriteString(MsgMyListings)
	sb.WriteString("\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range listings {
		sb.WriteString(fmt.Sprintf("\n• %s — %s (%s)", escapeMarkdown(l.Name), FormatPrice(l.Price), statusLabel(l.Status)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(l.Name, callbackData(ActionShowListing, l.ID)),
		))
	}

	msg := tgbotapi.MessageConfig{
		Text:      sb.String(),
		ParseMode: tgbotapi.ModeMarkdown,
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	session.replyWithMessage(msg)
}

// handleShowListing sends the owner's card for one listing with its
// management keyboard.
func (b *Bot) handleShowListing(session *UserSession, action Action) {
	l, ok := b.loadOwnListing(session, action.ListingID)
	if !ok {
		return
	}
	seller, err := b.store.GetUser(l.SellerID)
	if err != nil {
		log.Warn().Err(err).Int64("sellerId", l.SellerID).Msg("failed to load seller for listing card")
	}

	text := fmt.Sprintf("%s\n\nСтатус: %s", ComposeBroadcast(l, seller), statusLabel(l.Status))
	keyboard := managementKeyboard(l)

	if l.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(session.userId, tgbotapi.FileID(l.PhotoFileID))
		photo.Caption = text
		photo.ReplyMarkup = keyboard
		if _, err := b.tg.Send(photo); err != nil {
			session.replyWithError(err)
		}
		return
	}

	msg := tgbotapi.NewMessage(session.userId, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.tg.Send(msg); err != nil {
		session.replyWithError(err)
	}
}

func managementKeyboard(l *storage.Listing) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if l.Status == storage.StatusActive {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnRepublish, callbackData(ActionRepublish, l.ID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnSold, callbackData(ActionSold, l.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnChangePrice, callbackData(ActionChangePrice, l.ID)),
		tgbotapi.NewInlineKeyboardButtonData(BtnDelete, callbackData(ActionDelete, l.ID)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// handleRepublish reposts an active listing to the channel. The old post is
// removed best-effort, the new one is authoritative.
func (b *Bot) handleRepublish(session *UserSession, action Action) {
	l, ok := b.loadOwnListing(session, action.ListingID)
	if !ok {
		return
	}
	if l.Status != storage.StatusActive {
		session.reply(MsgRepublishOnlyLive)
		return
	}

	seller, err := b.store.GetUser(l.SellerID)
	if err != nil {
		log.Warn().Err(err).Int64("sellerId", l.SellerID).Msg("failed to load seller for republish")
	}

	msgID, err := b.publishToChannel(l, seller)
	if err != nil {
		session.replyWithError(err)
		return
	}
	if err := b.store.SetListingRepublished(l.ID, msgID, time.Now()); err != nil {
		// Roll the new post back so the stored reference still matches the
		// post that is live
		orphan := *l
		orphan.ChannelMessageID = msgID
		b.deleteChannelPost(&orphan)
		session.replyWithError(err)
		return
	}

	// The old post goes away only once the new reference is durable;
	// l still carries the pre-republish message id
	b.deleteChannelPost(l)
	session.reply(MsgRepublished)
}

// handleSold marks an active listing as sold and takes down its post.
func (b *Bot) handleSold(session *UserSession, action Action) {
	l, ok := b.loadOwnListing(session, action.ListingID)
	if !ok {
		return
	}
	if l.Status != storage.StatusActive {
		session.reply(MsgSoldOnlyLive)
		return
	}

	if err := b.store.ClearChannelMessage(l.ID, storage.StatusSold); err != nil {
		session.replyWithError(err)
		return
	}
	b.deleteChannelPost(l)
	session.reply(MsgMarkedSold)
}

// handleDelete removes a listing in any status, together with its channel
// post and every dependent row.
func (b *Bot) handleDelete(session *UserSession, action Action) {
	l, ok := b.loadOwnListing(session, action.ListingID)
	if !ok {
		return
	}

	if err := b.store.DeleteListing(l.ID); err != nil {
		session.replyWithError(err)
		return
	}
	b.deleteChannelPost(l)
	session.reply(MsgDeleted)
}

// handleChangePriceStart begins the owner's price change sub-flow.
func (b *Bot) handleChangePriceStart(session *UserSession, action Action) {
	if _, ok := b.loadOwnListing(session, action.ListingID); !ok {
		return
	}
	b.dialogs.Set(session.userId, DialogEntry{Stage: StageOwnerPrice, ListingID: action.ListingID})
	session.reply(MsgAskNewPrice)
}

// handleOwnerPriceInput applies the owner's new price. Only the price column
// changes: an existing channel post keeps its old text until the next
// republish.
func (b *Bot) handleOwnerPriceInput(session *UserSession, entry DialogEntry, text string) {
	price, err := ParsePrice(text)
	if err != nil {
		session.reply(MsgPriceInvalid)
		return
	}

	if err := b.store.UpdateListingPrice(entry.ListingID, price); err != nil {
		if err == storage.ErrNotFound {
			b.dialogs.Clear(session.userId)
			session.reply(MsgListingNotFound)
			return
		}
		session.replyWithError(err)
		return
	}

	b.dialogs.Clear(session.userId)
	session.reply(MsgPriceUpdated, FormatPrice(price))
}

// loadOwnListing is loadListing plus an ownership check. Moderators pass the
// check for any listing.
func (b *Bot) loadOwnListing(session *UserSession, listingID int64) (*storage.Listing, bool) {
	l, ok := b.loadListing(session, listingID)
	if !ok {
		return nil, false
	}
	if l.SellerID != session.userId && !b.isModerator(session.userId) {
		session.reply(MsgNotYourListing)
		return nil, false
	}
	return l, true
}
