package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/ukrmarket/baraholka-bot/internal/llm"
	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg        BotAPI
	state     BotState
	store     storage.Store
	dialogs   DialogStore
	assistant llm.Assistant
	adminID   int64
	channelID int64
}

// NewBot creates a new Bot instance. adminID is the moderation chat,
// channelID the broadcast channel listings get published to.
func NewBot(tg BotAPI, store storage.Store, adminID, channelID int64) *Bot {
	bot := &Bot{
		tg:        tg,
		store:     store,
		dialogs:   NewDialogStore(),
		adminID:   adminID,
		channelID: channelID,
	}
	bot.state = bot.NewBotState()
	return bot
}

// SetAssistant wires in the LLM assistant. Without it the bot still works,
// minus tag suggestions and free-text answers.
func (b *Bot) SetAssistant(assistant llm.Assistant) {
	b.assistant = assistant
}

// Shutdown stops all session workers gracefully.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to
// complete. Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	session := b.state.getUserSession(userId)

	// Helper to send sync or async based on flag
	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{
			Type:          "callback",
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	log.Info().Str("text", update.Message.Text).Msg("got message")

	switch {
	case update.Message.Contact != nil:
		send(SessionMessage{Type: "contact", Ctx: ctx, Message: update.Message})
	case len(update.Message.Photo) > 0:
		send(SessionMessage{Type: "photo", Ctx: ctx, Message: update.Message})
	default:
		send(SessionMessage{Type: "text", Ctx: ctx, Message: update.Message})
	}
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
// No mutex locking is needed here since only one goroutine accesses session state.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "contact":
		b.registerUser(msg.Message.From)
		b.handleContact(session, msg.Message.Contact)
	case "photo":
		b.registerUser(msg.Message.From)
		b.handlePhotoMessage(ctx, session, msg.Message)
	case "text":
		b.registerUser(msg.Message.From)
		b.handleTextMessage(ctx, session, msg.Message)
	}
}

// handlePhotoMessage processes photo messages.
// Called from session worker - no locking needed.
func (b *Bot) handlePhotoMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if b.handleDialogPhoto(ctx, session, message) {
		return
	}
	session.reply(MsgAssistantFallback)
}

// handleTextMessage processes text messages.
// Called from session worker - no locking needed.
func (b *Bot) handleTextMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if strings.HasPrefix(message.Text, "/") {
		b.handleCommand(session, message)
		return
	}

	// Dialogue answers (listing creation, moderator edits, price changes)
	if b.handleDialogText(ctx, session, message) {
		return
	}

	b.handleAssistantMessage(ctx, session, message.From.FirstName, message.Text)
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(session *UserSession, message *tgbotapi.Message) {
	command, _ := parseCommand(message.Text)
	switch command {
	case "/start":
		session.reply(MsgStartWelcome, escapeMarkdown(message.From.FirstName))
	case "/help":
		session.reply(MsgHelp)
	case "/sell":
		b.handleSellCommand(session)
	case "/my":
		b.handleMyCommand(session)
	case "/phone":
		b.handlePhoneCommand(session)
	case "/cancel":
		b.handleCancelCommand(session)
	default:
		session.reply(MsgHelp)
	}
}

// handleCallbackQuery handles inline keyboard button presses. The raw
// callback data is decoded into an Action exactly once here; everything
// downstream works with the typed action.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(_ context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	b.tg.Request(callback)

	action, err := parseAction(query.Data)
	if err != nil {
		log.Warn().Err(err).Str("data", query.Data).Msg("ignoring unparseable callback")
		return
	}

	switch action.Kind {
	case ActionApprove, ActionReject, ActionPhotoFix, ActionContactSeller, ActionModEdit:
		if !b.isModerator(session.userId) {
			log.Warn().Int64("userId", session.userId).Str("data", query.Data).Msg("moderation callback from non-moderator")
			return
		}
	}

	switch action.Kind {
	case ActionApprove:
		b.handleApprove(session, action)
	case ActionReject:
		b.handleReject(session, action)
	case ActionPhotoFix:
		b.handlePhotoFix(session, action)
	case ActionContactSeller:
		b.handleContactSeller(session, action)
	case ActionModEdit:
		b.handleModEditStart(session, action)
	case ActionShowListing:
		b.handleShowListing(session, action)
	case ActionRepublish:
		b.handleRepublish(session, action)
	case ActionSold:
		b.handleSold(session, action)
	case ActionDelete:
		b.handleDelete(session, action)
	case ActionChangePrice:
		b.handleChangePriceStart(session, action)
	}
}
