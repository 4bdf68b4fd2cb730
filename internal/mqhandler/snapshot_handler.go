package mqhandler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	mqcontracts "sitemaster/contracts/mq"
	"sitemaster/internal/model"
	"sitemaster/internal/service/project"
	"sitemaster/pkg/logger"
	"sitemaster/pkg/mq"
	"sitemaster/pkg/trace"
	"sitemaster/pkg/util"
)

const (
	handlerName       = "earned_snapshot"
	defaultMaxRetries = 5
)

type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, projectID, trigger string) (*model.EarnedValueSnapshot, error)
}

type Deduper interface {
	AcquireOnce(ctx context.Context, handler, eventID string) bool
	Release(ctx context.Context, handler, eventID string)
}

type RetryCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, routingKey string, payload []byte, errorType, originalError string) error
}

var (
	_ Deduper      = (*util.Deduper)(nil)
	_ RetryCounter = (*util.RetryCounter)(nil)
	_ DLQPublisher = (*mq.Publisher)(nil)
)

// SnapshotHandler records an earned-value snapshot for the project behind every change event.
type SnapshotHandler struct {
	recorder     SnapshotRecorder
	deduper      Deduper
	retryCounter RetryCounter
	dlq          DLQPublisher
	maxRetries   int64
	logger       *zap.Logger
}

func NewSnapshotHandler(
	recorder SnapshotRecorder,
	deduper Deduper,
	retryCounter RetryCounter,
	dlq DLQPublisher,
	maxRetries int64,
	logger *zap.Logger,
) *SnapshotHandler {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &SnapshotHandler{
		recorder:     recorder,
		deduper:      deduper,
		retryCounter: retryCounter,
		dlq:          dlq,
		maxRetries:   maxRetries,
		logger:       logger,
	}
}

// HandleProjectChanged consumes project.changed. Deleted projects have nothing left to snapshot.
func (h *SnapshotHandler) HandleProjectChanged(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.ProjectChangedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return h.deadLetter(ctx, mqcontracts.RoutingProjectChanged, raw, "json_decode_error", err)
	}
	if p.Action == mqcontracts.ActionDeleted {
		h.logger.Debug("Project deleted, no snapshot", zap.String("project_id", p.ProjectID))
		return nil
	}
	return h.process(ctx, mqcontracts.RoutingProjectChanged, raw, p.EventID, p.ProjectID, p.TraceID)
}

// HandleTaskChanged consumes task.changed.
func (h *SnapshotHandler) HandleTaskChanged(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.TaskChangedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return h.deadLetter(ctx, mqcontracts.RoutingTaskChanged, raw, "json_decode_error", err)
	}
	return h.process(ctx, mqcontracts.RoutingTaskChanged, raw, p.EventID, p.ProjectID, p.TraceID)
}

// process returns an error only when the event should be redelivered.
func (h *SnapshotHandler) process(ctx context.Context, routingKey string, raw json.RawMessage, eventID, projectID, traceID string) error {
	if traceID != "" && trace.FromContext(ctx) == "" {
		ctx = trace.WithContext(ctx, traceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(
		zap.String("routing_key", routingKey),
		zap.String("event_id", eventID),
		zap.String("project_id", projectID),
	)

	if eventID == "" || projectID == "" {
		return h.deadLetter(ctx, routingKey, raw, "invalid_payload", errors.New("event_id and project_id are required"))
	}

	// Redis 去重：同一事件只记录一次快照
	if !h.deduper.AcquireOnce(ctx, handlerName, eventID) {
		return nil
	}

	_, err := h.recorder.RecordSnapshot(ctx, projectID, routingKey)
	if err == nil {
		h.resetRetries(ctx, eventID)
		return nil
	}

	if errors.Is(err, project.ErrProjectNotFound) {
		log.Info("Project no longer exists, skipping snapshot")
		return nil
	}

	isRetryable, errType := util.IsRetryableError(err)
	log.Error("Failed to record snapshot",
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Error(err),
	)
	if !isRetryable {
		return h.parkOrRelease(ctx, routingKey, raw, eventID, errType, err)
	}

	retryKey := util.FormatRetryKey(handlerName, eventID)
	count, cerr := h.retryCounter.IncrementAndGet(ctx, retryKey)
	if cerr != nil {
		// Redis 错误不影响处理，按第一次算
		log.Warn("Failed to get retry count, continuing anyway", zap.Error(cerr))
		count = 1
	}
	if !util.ShouldRetry(count, h.maxRetries, isRetryable) {
		log.Warn("Max retries exceeded, sending to DLQ", zap.Int64("retry_count", count))
		h.resetRetries(ctx, eventID)
		return h.parkOrRelease(ctx, routingKey, raw, eventID, "max_retries_exceeded", err)
	}

	h.deduper.Release(ctx, handlerName, eventID)
	return err
}

// deadLetter parks the message and acks it. If the DLQ itself is unavailable the message is requeued.
func (h *SnapshotHandler) deadLetter(ctx context.Context, routingKey string, raw []byte, errType string, cause error) error {
	h.logger.Error("Sending message to DLQ",
		zap.String("routing_key", routingKey),
		zap.String("error_type", errType),
		zap.Error(cause),
	)
	if err := h.dlq.PublishToDLQ(ctx, routingKey, raw, errType, cause.Error()); err != nil {
		h.logger.Error("Failed to publish to DLQ", zap.String("routing_key", routingKey), zap.Error(err))
		return err
	}
	return nil
}

// parkOrRelease dead-letters an event that already holds its dedup key, releasing the key
// when the message goes back to the queue.
func (h *SnapshotHandler) parkOrRelease(ctx context.Context, routingKey string, raw []byte, eventID, errType string, cause error) error {
	if err := h.deadLetter(ctx, routingKey, raw, errType, cause); err != nil {
		h.deduper.Release(ctx, handlerName, eventID)
		return err
	}
	return nil
}

func (h *SnapshotHandler) resetRetries(ctx context.Context, eventID string) {
	if err := h.retryCounter.Reset(ctx, util.FormatRetryKey(handlerName, eventID)); err != nil {
		h.logger.Debug("Failed to reset retry counter", zap.String("event_id", eventID), zap.Error(err))
	}
}
