package amqp

import (
	"context"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// ChangePublisher sends ledger changes to other processes.
type ChangePublisher interface {
	PublishLedgerChange(ctx context.Context, c ledger.Change) error
}

// Publisher forwards ledger writes to the exchange. Publishing failures are
// logged and never fail the write that triggered them.
type Publisher struct {
	client ChangePublisher
	logger *log.Logger
}

func NewPublisher(client ChangePublisher, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Discard()
	}
	return &Publisher{client: client, logger: logger.WithComponent(log.ComponentAMQP)}
}

// LedgerChanged implements ledger.Observer.
func (p *Publisher) LedgerChanged(ctx context.Context, c ledger.Change) {
	if p.client == nil {
		return
	}
	if err := p.client.PublishLedgerChange(context.WithoutCancel(ctx), c); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldLedger, c.Ledger, log.FieldRecordKey, c.Key, log.FieldError, err.Error())
	}
}

// Invalidator is told about changes made by other processes.
type Invalidator interface {
	Invalidate(ctx context.Context, c ledger.Change)
}

// InvalidateHandler turns received messages into local invalidations.
func InvalidateHandler(inv Invalidator) Handler {
	return func(ctx context.Context, msg *LedgerChangedMessage) error {
		inv.Invalidate(ctx, msg.Change())
		return nil
	}
}
