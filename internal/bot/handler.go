package bot

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"pindl/internal/session"
)

// Session is the part of the session machine the bot drives.
type Session interface {
	Submit(ctx context.Context, url string) *session.Task
	SubmitInput(ctx context.Context) *session.Task
	FillExample()
	Snapshot() session.View
	RemoveEntry(ctx context.Context, id int64) bool
	ClearHistory(ctx context.Context)
}

// Handler holds dependencies for the Telegram bot handlers.
// All chats share one session, the same way the app has a single local history.
type Handler struct {
	bot     *tgbot.Bot
	session Session
	log     logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, sess Session, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := &Handler{session: sess, log: log}

	b, err := tgbot.New(token, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command handlers. Anything else reaches defaultHandler.
func (h *Handler) registerHandlers() {
	for _, cmd := range []string{cmdStart, cmdHelp, cmdExample, cmdSubmit, cmdHistory, cmdStats, cmdClear, cmdRemove} {
		h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, cmd, tgbot.MatchTypePrefix, h.commandHandler)
	}
	h.log.Debug("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) commandHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

// defaultHandler treats plain text as a URL submission.
func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h *Handler) handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.log.WithField("chat_id", update.Message.Chat.ID)
	if update.Message.From != nil {
		log = log.WithField("user_id", update.Message.From.ID)
	}
	log.WithField("text", update.Message.Text).Debug("Received message")

	text := Respond(ctx, h.session, update.Message.Text)

	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		log.WithError(err).Error("Failed to send reply")
	}
}
