package monitor

import (
	"context"
	"log/slog"

	"github.com/KNICEX/spot-trader/internal/service/notification"
)

type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

type consoleNotifier struct {
}

func (c consoleNotifier) Notify(ctx context.Context, alert Alert) error {
	slog.Warn("monitor alert", "kind", alert.Kind, "trader_id", alert.TraderId, "message", alert.Message)
	return nil
}

// webhookNotifier 将告警推送到 webhook
type webhookNotifier struct {
	svc notification.WebhookService
	url string
}

func NewWebhookNotifier(svc notification.WebhookService, url string) Notifier {
	return &webhookNotifier{svc: svc, url: url}
}

func (w *webhookNotifier) Notify(ctx context.Context, alert Alert) error {
	return w.svc.Send(ctx, w.url, map[string]any{
		"kind":      alert.Kind,
		"trader_id": alert.TraderId,
		"message":   alert.Message,
		"timestamp": alert.Timestamp,
	})
}

// multiNotifier 依次通知, 单个失败不影响其他
type multiNotifier []Notifier

func (m multiNotifier) Notify(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewConsoleNotifier() Notifier {
	return consoleNotifier{}
}
