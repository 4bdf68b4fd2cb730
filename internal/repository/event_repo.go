package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"sitemaster/pkg/outbox"
)

var ErrNoTransaction = errors.New("outbox events must be enqueued inside a transaction")

// EventRepository queues domain events in the outbox alongside the business write.
type EventRepository struct {
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewEventRepository(outboxRepo *outbox.Repository, logger *zap.Logger) *EventRepository {
	return &EventRepository{outbox: outboxRepo, logger: logger}
}

func (r *EventRepository) Enqueue(ctx context.Context, aggregateType, aggregateID, routingKey string, payload any) error {
	tx, ok := TxFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}

	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, aggregateType, aggregateID, routingKey, payload); err != nil {
		r.logger.Error("Failed to enqueue outbox event",
			zap.String("routing_key", routingKey),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Debug("Outbox event enqueued",
		zap.String("routing_key", routingKey),
		zap.String("aggregate_id", aggregateID),
	)
	return nil
}
