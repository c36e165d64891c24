package telegram

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

// ShortAddr returns a shortened address for display
func ShortAddr(addr string, n int) string {
	if addr == "" {
		return "unknown"
	}
	if len(addr) < n*2+3 {
		return addr
	}
	return addr[:n] + "..." + addr[len(addr)-n:]
}

// AddrLink renders a as a tonviewer link labelled with its short form
func AddrLink(a controls.Address) string {
	if a.IsZero() {
		return "-"
	}
	friendly := a.Friendly()
	return fmt.Sprintf("<a href='https://tonviewer.com/%s'>%s</a>", friendly, ShortAddr(friendly, 4))
}

// FormatAmount prints amount in whole units. TON amounts are nano-denominated.
func FormatAmount(amount uint64, token string) string {
	if token != "TON" {
		return fmt.Sprintf("%d %s", amount, html.EscapeString(token))
	}
	whole, frac := amount/1_000_000_000, amount%1_000_000_000
	if frac == 0 {
		return fmt.Sprintf("%d TON", whole)
	}
	return fmt.Sprintf("%d.%s TON", whole, strings.TrimRight(fmt.Sprintf("%09d", frac), "0"))
}

func formatCap(n uint64) string {
	if n == 0 {
		return "∞"
	}
	return fmt.Sprintf("%d", n)
}

func phaseStatus(p *controls.Phase, now time.Time) string {
	switch {
	case !p.Active:
		return "⏸ paused"
	case now.Before(p.StartTime):
		return "⏳ upcoming"
	case !p.EndTime.IsZero() && !now.Before(p.EndTime):
		return "⏹ ended"
	case p.SoldOut():
		return "🔒 sold out"
	default:
		return "🟢 live"
	}
}

// FormatPhases renders the phase list of a collection with live counters
func FormatPhases(d *controls.Deployment, c *controls.Controls, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b> (%s)\n", html.EscapeString(d.Name), html.EscapeString(d.Symbol))
	fmt.Fprintf(&sb, "Supply: <b>%d/%s</b>\n", d.Supply, formatCap(d.MaxSupply))
	fmt.Fprintf(&sb, "Wallet cap: <b>%s</b>\n", formatCap(c.MaxMintsPerWallet))

	if len(c.Phases) == 0 {
		sb.WriteString("\nNo phases added yet.")
		return sb.String()
	}

	for i := range c.Phases {
		p := &c.Phases[i]
		kind := "public"
		if p.IsPrivate {
			kind = "allowlist"
		}
		fmt.Fprintf(&sb, "\n<b>#%d</b> %s · %s\n", i, phaseStatus(p, now), kind)
		fmt.Fprintf(&sb, "Minted: <b>%d/%s</b>, per wallet %s\n", p.CurrentMints, formatCap(p.MaxMintsTotal), formatCap(p.MaxMintsPerWallet))
		if !p.IsPrivate {
			fmt.Fprintf(&sb, "Price: %s\n", FormatAmount(p.PriceAmount, p.PriceToken))
		}
		end := "open"
		if !p.EndTime.IsZero() {
			end = p.EndTime.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "Window: %s → %s UTC\n", p.StartTime.UTC().Format("2006-01-02 15:04"), end)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatWalletStats renders what one wallet minted in a collection
func FormatWalletStats(s *storage.WalletStats) string {
	lines := []string{
		fmt.Sprintf("👛 %s", AddrLink(s.Wallet)),
		"",
		fmt.Sprintf("Minted: <b>%d</b>", s.Total),
	}
	phases := make([]uint32, 0, len(s.PerPhase))
	for phase := range s.PerPhase {
		phases = append(phases, phase)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })
	for _, phase := range phases {
		lines = append(lines, fmt.Sprintf("• phase #%d: %d", phase, s.PerPhase[phase]))
	}
	if len(s.Tokens) > 0 {
		last := s.Tokens[len(s.Tokens)-1]
		lines = append(lines, "", fmt.Sprintf("Last token: <code>%s</code> (#%d)", last.TokenID, last.Number))
	}
	return strings.Join(lines, "\n")
}
