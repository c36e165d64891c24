package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/ton-mintgate/internal/config"
	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

var addrRegex = regexp.MustCompile(`(-?[0-9]+:[0-9a-fA-F]{64}|[UEk0][Qf][0-9A-Za-z_+/-]{46})`)

// Reader is the read side of the mint service the bot renders
type Reader interface {
	Collection(ctx context.Context, collection controls.Address) (*controls.Deployment, *controls.Controls, error)
	WalletStats(ctx context.Context, collection, wallet controls.Address) (*storage.WalletStats, error)
}

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot    *bot.Bot
	cfg    *config.Config
	reader Reader
	states *StateManager
	log    *slog.Logger
	now    func() time.Time
}

// New creates a new telegram bot
func New(cfg *config.Config, reader Reader, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		cfg:    cfg,
		reader: reader,
		states: NewStateManager(),
		log:    log,
		now:    time.Now,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start ", bot.MatchTypePrefix, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/phases", bot.MatchTypePrefix, b.phasesHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/wallet", bot.MatchTypePrefix, b.walletHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// --- Handlers ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.states.Clear(update.Message.Chat.ID)

	text := "<b>TON Mintgate</b> 🚀\n\n" +
		"I show live mint phases and wallet counters of gated collections.\n\n" +
		"/phases &lt;collection&gt; – phase list with supply and windows\n" +
		"/wallet &lt;collection&gt; &lt;wallet&gt; – what a wallet has minted"
	if b.cfg.IsAdminChat(update.Message.Chat.ID) {
		text += "\n\nThis chat receives mint and phase notifications."
	}

	b.sendMessage(ctx, update.Message.Chat.ID, text, nil)
}

func (b *Bot) phasesHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	addrs := extractAddresses(update.Message.Text)
	if len(addrs) == 0 {
		b.states.Set(chatID, StateWaitCollection, controls.Address{})
		b.sendMessage(ctx, chatID, "Send the collection address 👇", nil)
		return
	}

	b.showPhases(ctx, chatID, addrs[0])
}

func (b *Bot) walletHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	addrs := extractAddresses(update.Message.Text)
	switch len(addrs) {
	case 0:
		b.states.Set(chatID, StateWaitCollection, controls.Address{})
		b.sendMessage(ctx, chatID, "Send the collection address, then the wallet 👇", nil)
	case 1:
		b.states.Set(chatID, StateWaitWallet, addrs[0])
		b.sendMessage(ctx, chatID, "Now send the wallet address 👇", nil)
	default:
		b.showWallet(ctx, chatID, addrs[0], addrs[1])
	}
}

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID

	state := b.states.Get(chatID)
	if state == nil {
		return
	}

	addrs := extractAddresses(update.Message.Text)
	if len(addrs) == 0 {
		b.sendMessage(ctx, chatID, "❌ That doesn't look like a TON address. Try again.", nil)
		return
	}

	switch state.State {
	case StateWaitCollection:
		b.states.Clear(chatID)
		if len(addrs) > 1 {
			b.showWallet(ctx, chatID, addrs[0], addrs[1])
			return
		}
		b.showPhases(ctx, chatID, addrs[0])
	case StateWaitWallet:
		b.states.Clear(chatID)
		b.showWallet(ctx, chatID, state.Collection, addrs[0])
	}
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	raw, ok := strings.CutPrefix(cb.Data, callbackPhases)
	if !ok {
		return
	}
	collection, err := controls.ParseAddress(raw)
	if err != nil {
		b.log.Warn("bad callback address", "data", cb.Data, "err", err)
		return
	}

	text, err := b.phasesText(ctx, collection)
	if err != nil {
		b.editMessage(ctx, cb.Message, describeErr(err), nil)
		return
	}
	b.editMessage(ctx, cb.Message, text, PhasesKeyboard(collection))
}

// --- Rendering ---

func (b *Bot) showPhases(ctx context.Context, chatID int64, collection controls.Address) {
	text, err := b.phasesText(ctx, collection)
	if err != nil {
		b.sendMessage(ctx, chatID, describeErr(err), nil)
		return
	}
	b.sendMessage(ctx, chatID, text, PhasesKeyboard(collection))
}

func (b *Bot) phasesText(ctx context.Context, collection controls.Address) (string, error) {
	d, c, err := b.reader.Collection(ctx, collection)
	if err != nil {
		b.log.Debug("load collection", "collection", collection, "err", err)
		return "", err
	}
	return FormatPhases(d, c, b.now()), nil
}

func (b *Bot) showWallet(ctx context.Context, chatID int64, collection, wallet controls.Address) {
	stats, err := b.reader.WalletStats(ctx, collection, wallet)
	if err != nil {
		b.log.Debug("load wallet stats", "collection", collection, "wallet", wallet, "err", err)
		b.sendMessage(ctx, chatID, describeErr(err), nil)
		return
	}
	b.sendMessage(ctx, chatID, FormatWalletStats(stats), PhasesKeyboard(collection))
}

func describeErr(err error) string {
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ Collection not found."
	}
	return "❌ Something went wrong, try again later."
}

// --- Helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disablePreview},
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.bot.SendMessage(ctx, params); err != nil {
		b.log.Error("send message", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	disablePreview := true
	params := &bot.EditMessageTextParams{
		ChatID:             msg.Message.Chat.ID,
		MessageID:          msg.Message.ID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disablePreview},
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.bot.EditMessageText(ctx, params); err != nil {
		b.log.Debug("edit message", "err", err)
	}
}

// SendNotification sends a notification to a chat
func (b *Bot) SendNotification(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disablePreview},
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}

// extractAddresses returns every parseable TON address in text, in order
func extractAddresses(text string) []controls.Address {
	var out []controls.Address
	for _, m := range addrRegex.FindAllString(text, -1) {
		a, err := controls.ParseAddress(m)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
