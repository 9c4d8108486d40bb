package paymentwatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/docforge/docforge/internal/config"
)

type PaymentService interface {
	ProcessPending(ctx context.Context, limit uint32)
}

// Watcher periodically reconciles pending payment intents against the
// external processor, complementing the webhook path: confirmations arrive
// even when no webhook is ever delivered, and stale intents get expired.
type Watcher struct {
	payments PaymentService
	limit    uint32
	interval time.Duration
}

func New(cfg *config.Config, payments PaymentService) *Watcher {
	return &Watcher{
		payments: payments,
		limit:    500,
		interval: cfg.PaymentInterval,
	}
}

func (w *Watcher) Start(ctx context.Context) {
	zap.L().Info("Payment watcher started")
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping payment watcher")
			return
		case <-ticker.C:
			w.payments.ProcessPending(ctx, w.limit)
		}
	}
}
