package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/infra/metrics"
)

var _ adapter.SupportNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs alerts instead of sending them. Used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) NotifySupport(ctx context.Context, alert adapter.SupportAlert) error {
	n.log.Warn().
		Str("session_id", alert.SessionID).
		Str("phase", alert.Phase).
		Str("reason", alert.Reason).
		Msg("[noop-telegram] support alert")
	metrics.IncSupportAlert(alert.Phase, "logged")
	return nil
}
