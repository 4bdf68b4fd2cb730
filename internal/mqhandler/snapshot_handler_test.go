package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "sitemaster/contracts/mq"
	"sitemaster/internal/model"
	"sitemaster/internal/service/project"
)

type fakeRecorder struct {
	calls []string
	err   error
}

func (f *fakeRecorder) RecordSnapshot(ctx context.Context, projectID, trigger string) (*model.EarnedValueSnapshot, error) {
	f.calls = append(f.calls, projectID+"|"+trigger)
	if f.err != nil {
		return nil, f.err
	}
	return &model.EarnedValueSnapshot{ProjectID: projectID, Trigger: trigger}, nil
}

type memDeduper struct {
	seen     map[string]bool
	released int
}

func (d *memDeduper) AcquireOnce(ctx context.Context, handler, eventID string) bool {
	key := handler + ":" + eventID
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func (d *memDeduper) Release(ctx context.Context, handler, eventID string) {
	delete(d.seen, handler+":"+eventID)
	d.released++
}

type memCounter struct{ counts map[string]int64 }

func (c *memCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memCounter) Reset(ctx context.Context, key string) error {
	delete(c.counts, key)
	return nil
}

type parked struct {
	routingKey string
	errorType  string
}

type fakeDLQ struct {
	items []parked
	err   error
}

func (f *fakeDLQ) PublishToDLQ(ctx context.Context, routingKey string, payload []byte, errorType, originalError string) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, parked{routingKey, errorType})
	return nil
}

type harness struct {
	h        *SnapshotHandler
	recorder *fakeRecorder
	dedup    *memDeduper
	counter  *memCounter
	dlq      *fakeDLQ
}

func newHarness(maxRetries int64) *harness {
	x := &harness{
		recorder: &fakeRecorder{},
		dedup:    &memDeduper{seen: map[string]bool{}},
		counter:  &memCounter{counts: map[string]int64{}},
		dlq:      &fakeDLQ{},
	}
	x.h = NewSnapshotHandler(x.recorder, x.dedup, x.counter, x.dlq, maxRetries, zap.NewNop())
	return x
}

func taskEvent(t *testing.T, eventID string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(mqcontracts.TaskChangedPayload{
		EventID:   eventID,
		ProjectID: "p1",
		TaskIDs:   []string{"t1"},
		Action:    mqcontracts.ActionStatus,
	})
	require.NoError(t, err)
	return raw
}

func TestHandleTaskChanged_RecordsOnce(t *testing.T) {
	x := newHarness(3)
	ctx := context.Background()

	require.NoError(t, x.h.HandleTaskChanged(ctx, taskEvent(t, "e1")))
	require.NoError(t, x.h.HandleTaskChanged(ctx, taskEvent(t, "e1")))

	assert.Equal(t, []string{"p1|task.changed"}, x.recorder.calls)
	assert.Empty(t, x.dlq.items)
}

func TestHandleProjectChanged_SkipsDeleted(t *testing.T) {
	x := newHarness(3)
	raw, _ := json.Marshal(mqcontracts.ProjectChangedPayload{EventID: "e1", ProjectID: "p1", Action: mqcontracts.ActionDeleted})

	require.NoError(t, x.h.HandleProjectChanged(context.Background(), raw))
	assert.Empty(t, x.recorder.calls)
}

func TestHandle_BadJSONGoesToDLQ(t *testing.T) {
	x := newHarness(3)

	require.NoError(t, x.h.HandleProjectChanged(context.Background(), json.RawMessage(`{"event_id":`)))
	require.Len(t, x.dlq.items, 1)
	assert.Equal(t, "json_decode_error", x.dlq.items[0].errorType)
	assert.Equal(t, mqcontracts.RoutingProjectChanged, x.dlq.items[0].routingKey)
}

func TestHandle_MissingIDsGoToDLQ(t *testing.T) {
	x := newHarness(3)

	require.NoError(t, x.h.HandleTaskChanged(context.Background(), json.RawMessage(`{"project_id":"p1"}`)))
	require.Len(t, x.dlq.items, 1)
	assert.Equal(t, "invalid_payload", x.dlq.items[0].errorType)
}

func TestHandle_ProjectGoneIsAcked(t *testing.T) {
	x := newHarness(3)
	x.recorder.err = fmt.Errorf("%w: p1", project.ErrProjectNotFound)

	require.NoError(t, x.h.HandleTaskChanged(context.Background(), taskEvent(t, "e1")))
	assert.Empty(t, x.dlq.items)
}

func TestHandle_NonRetryableGoesToDLQ(t *testing.T) {
	x := newHarness(3)
	x.recorder.err = &pgconn.PgError{Code: "23503"}

	require.NoError(t, x.h.HandleTaskChanged(context.Background(), taskEvent(t, "e1")))
	require.Len(t, x.dlq.items, 1)
	assert.Equal(t, "foreign_key_violation", x.dlq.items[0].errorType)
}

func TestHandle_RetryableIsRequeuedUntilLimit(t *testing.T) {
	x := newHarness(3)
	x.recorder.err = &pgconn.PgError{Code: "40001"}
	ctx := context.Background()
	raw := taskEvent(t, "e1")

	assert.Error(t, x.h.HandleTaskChanged(ctx, raw))
	assert.Error(t, x.h.HandleTaskChanged(ctx, raw))
	assert.Equal(t, 2, x.dedup.released)
	assert.Empty(t, x.dlq.items)

	require.NoError(t, x.h.HandleTaskChanged(ctx, raw))
	require.Len(t, x.dlq.items, 1)
	assert.Equal(t, "max_retries_exceeded", x.dlq.items[0].errorType)
	assert.Empty(t, x.counter.counts)
	assert.Len(t, x.recorder.calls, 3)
}

func TestHandle_DLQFailureRequeues(t *testing.T) {
	x := newHarness(3)
	x.recorder.err = &pgconn.PgError{Code: "23503"}
	x.dlq.err = errors.New("channel closed")

	err := x.h.HandleTaskChanged(context.Background(), taskEvent(t, "e1"))
	assert.Error(t, err)
	assert.Equal(t, 1, x.dedup.released)
}

func TestHandle_SuccessResetsRetries(t *testing.T) {
	x := newHarness(5)
	ctx := context.Background()
	raw := taskEvent(t, "e1")

	x.recorder.err = errors.New("connection refused")
	assert.Error(t, x.h.HandleTaskChanged(ctx, raw))
	assert.Len(t, x.counter.counts, 1)

	x.recorder.err = nil
	require.NoError(t, x.h.HandleTaskChanged(ctx, raw))
	assert.Empty(t, x.counter.counts)
}
