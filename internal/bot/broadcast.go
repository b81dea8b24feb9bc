package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

// ComposeBroadcast renders the canonical listing text. The same text is used
// for the channel post, the moderation card and the owner's preview, so the
// three never drift apart.
func ComposeBroadcast(l *storage.Listing, seller *storage.User) string {
	blocks := []string{
		fmt.Sprintf("📦 %s", l.Name),
		fmt.Sprintf("💰 Ціна: %s", FormatPrice(l.Price)),
		fmt.Sprintf("📝 %s", l.Description),
	}
	if l.City != "" {
		blocks = append(blocks, fmt.Sprintf("📍 Місто: %s", l.City))
	}
	blocks = append(blocks, fmt.Sprintf("🚚 Доставка: %s", l.Delivery))
	if l.Tags != "" {
		blocks = append(blocks, l.Tags)
	}
	if contact := sellerContact(seller); contact != "" {
		blocks = append(blocks, fmt.Sprintf("📞 Контакт: %s", contact))
	}
	return strings.Join(blocks, "\n\n")
}

// sellerContact prefers the Telegram handle and falls back to the phone
// number. Empty when the seller has neither.
func sellerContact(seller *storage.User) string {
	if seller == nil {
		return ""
	}
	if seller.Username != "" {
		return "@" + seller.Username
	}
	return seller.Phone
}

// publishToChannel posts the listing to the broadcast channel and returns the
// message ID of the new post.
func (b *Bot) publishToChannel(l *storage.Listing, seller *storage.User) (int64, error) {
	text := ComposeBroadcast(l, seller)

	var sent tgbotapi.Message
	var err error
	if l.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(b.channelID, tgbotapi.FileID(l.PhotoFileID))
		photo.Caption = text
		sent, err = b.tg.Send(photo)
	} else {
		sent, err = b.tg.Send(tgbotapi.NewMessage(b.channelID, text))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to post listing to channel: %w", err)
	}

	log.Info().
		Int64("listingId", l.ID).
		Int("channelMessageId", sent.MessageID).
		Msg("posted listing to channel")
	return int64(sent.MessageID), nil
}

// deleteChannelPost removes the listing's broadcast post. A failure only gets
// logged: the post may already be gone and the listing's own lifecycle must
// not depend on it.
func (b *Bot) deleteChannelPost(l *storage.Listing) {
	if l.ChannelMessageID == 0 {
		return
	}
	del := tgbotapi.NewDeleteMessage(b.channelID, int(l.ChannelMessageID))
	if _, err := b.tg.Request(del); err != nil {
		log.Warn().Err(err).
			Int64("listingId", l.ID).
			Int64("channelMessageId", l.ChannelMessageID).
			Msg("failed to delete channel post")
	}
}
