package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/ton-mintgate/internal/config"
	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/telegram"
)

// Sender delivers one HTML message to a chat
type Sender interface {
	SendNotification(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error
}

// Notifier reports committed mints and phase transitions to the operator chats
type Notifier struct {
	cfg    *config.Config
	sender Sender
	log    *slog.Logger
}

// New creates a new Notifier
func New(cfg *config.Config, sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		sender: sender,
		log:    log,
	}
}

// NotifyMint announces a committed mint
func (n *Notifier) NotifyMint(ctx context.Context, r *controls.Receipt) {
	n.broadcast(ctx, formatMintMessage(r), telegram.ReceiptKeyboard(r))
}

// NotifyPhaseSoldOut announces that a mint filled the last slot of a phase
func (n *Notifier) NotifyPhaseSoldOut(ctx context.Context, collection controls.Address, index uint32, phase controls.Phase) {
	text := fmt.Sprintf(
		"🔒 <b>Phase #%d sold out</b>\n\n"+
			"Collection: %s\n"+
			"Minted: <b>%d</b>",
		index, telegram.AddrLink(collection), phase.CurrentMints,
	)
	n.broadcast(ctx, text, telegram.PhasesKeyboard(collection))
}

// NotifyPhaseOpened announces that a phase window started
func (n *Notifier) NotifyPhaseOpened(ctx context.Context, d *controls.Deployment, index uint32, phase *controls.Phase) {
	kind := "public"
	if phase.IsPrivate {
		kind = "allowlist"
	}
	text := fmt.Sprintf(
		"🟢 <b>%s: phase #%d is live</b> (%s)\n\n"+
			"Collection: %s",
		html.EscapeString(d.Name), index, kind, telegram.AddrLink(d.Collection),
	)
	if !phase.IsPrivate {
		text += "\nPrice: " + telegram.FormatAmount(phase.PriceAmount, phase.PriceToken)
	}
	n.broadcast(ctx, text, telegram.PhasesKeyboard(d.Collection))
}

// NotifyPhaseClosed announces that a phase window ended
func (n *Notifier) NotifyPhaseClosed(ctx context.Context, d *controls.Deployment, index uint32, phase *controls.Phase) {
	text := fmt.Sprintf(
		"⏹ <b>%s: phase #%d ended</b>\n\n"+
			"Collection: %s\n"+
			"Minted: <b>%d</b>",
		html.EscapeString(d.Name), index, telegram.AddrLink(d.Collection), phase.CurrentMints,
	)
	n.broadcast(ctx, text, telegram.PhasesKeyboard(d.Collection))
}

func (n *Notifier) broadcast(ctx context.Context, text string, keyboard *models.InlineKeyboardMarkup) {
	for _, chatID := range n.cfg.AdminChatIDs {
		if err := n.sender.SendNotification(ctx, chatID, text, keyboard); err != nil {
			n.log.Error("send notification", "chat_id", chatID, "error", err)
		}
	}
}

func formatMintMessage(r *controls.Receipt) string {
	lines := []string{
		fmt.Sprintf("🪙 <b>Mint #%d</b> · phase #%d", r.TokenNumber, r.Phase),
		"",
		fmt.Sprintf("Collection: %s", telegram.AddrLink(r.Collection)),
		fmt.Sprintf("Minter: %s", telegram.AddrLink(r.Minter)),
	}
	if r.Payer != r.Minter {
		lines = append(lines, fmt.Sprintf("Payer: %s", telegram.AddrLink(r.Payer)))
	}

	lines = append(lines, "",
		fmt.Sprintf("Price: <b>%s</b>", telegram.FormatAmount(r.Split.Price, r.PriceToken)),
		fmt.Sprintf("Treasury: %s → %s", telegram.FormatAmount(r.Split.Remaining, r.PriceToken), telegram.AddrLink(r.Treasury)),
	)
	for _, p := range r.Split.Payouts {
		lines = append(lines, fmt.Sprintf("Fee: %s → %s", telegram.FormatAmount(p.Amount, r.PriceToken), telegram.AddrLink(p.Address)))
	}

	lines = append(lines, "",
		fmt.Sprintf("Wallet: %d total, %d this phase", r.WalletMints, r.WalletPhaseMints),
		fmt.Sprintf("Token: <code>%s</code>", html.EscapeString(r.TokenID)),
	)
	return strings.Join(lines, "\n")
}
