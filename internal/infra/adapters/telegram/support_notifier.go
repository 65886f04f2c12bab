package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/infra/metrics"
)

var _ adapter.SupportNotifier = (*SupportNotifier)(nil)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SupportNotifier posts payment-flow alerts to the support team's Telegram chat.
type SupportNotifier struct {
	bot    sender
	chatID int64
	log    *zerolog.Logger
}

func NewSupportNotifier(token string, chatID int64, logger *zerolog.Logger) (*SupportNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram support chat id empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newSupportNotifier(bot, chatID, logger), nil
}

func newSupportNotifier(bot sender, chatID int64, logger *zerolog.Logger) *SupportNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "SupportNotifier").Logger()
	return &SupportNotifier{bot: bot, chatID: chatID, log: &l}
}

func (n *SupportNotifier) NotifySupport(ctx context.Context, alert adapter.SupportAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(alert))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		metrics.IncSupportAlert(alert.Phase, "error")
		n.log.Error().Err(err).Str("session_id", alert.SessionID).Msg("send support alert")
		return fmt.Errorf("send support alert: %w", err)
	}
	metrics.IncSupportAlert(alert.Phase, "sent")
	return nil
}

// FormatAlert renders the alert as the plain-text body sent to support.
func FormatAlert(a adapter.SupportAlert) string {
	var b strings.Builder
	b.WriteString("⚠️ Payment flow needs attention\n")
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	line("phase", a.Phase)
	line("reason", a.Reason)
	line("user", a.UserID)
	line("payment", a.PaymentID)
	line("reference", a.ExternalReference)
	line("session", a.SessionID)
	return strings.TrimRight(b.String(), "\n")
}
