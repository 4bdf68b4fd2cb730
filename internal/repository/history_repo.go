package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sitemaster/internal/model"
)

type HistoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHistoryRepository(db *pgxpool.Pool, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

func (r *HistoryRepository) Insert(ctx context.Context, h *model.TaskHistory) error {
	r.logger.Debug("Recording task history",
		zap.String("task_id", h.TaskID),
		zap.String("action", h.Action),
	)

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO task_history (task_id, action, actor)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, h.TaskID, h.Action, h.Actor).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to record task history", zap.String("task_id", h.TaskID), zap.Error(err))
		return err
	}
	return nil
}

// InsertMany bulk-loads history entries with COPY; ids and created_at come from column defaults.
func (r *HistoryRepository) InsertMany(ctx context.Context, entries []model.TaskHistory) (int64, error) {
	r.logger.Debug("Bulk recording task history", zap.Int("count", len(entries)))
	if len(entries) == 0 {
		return 0, nil
	}

	n, err := conn(ctx, r.db).CopyFrom(ctx,
		pgx.Identifier{"task_history"},
		[]string{"task_id", "action", "actor"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			h := entries[i]
			return []any{h.TaskID, h.Action, h.Actor}, nil
		}),
	)
	if err != nil {
		r.logger.Error("Failed to bulk record task history", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Task history bulk recorded successfully", zap.Int64("rows", n))
	return n, nil
}

// ListByTask returns entries newest first.
func (r *HistoryRepository) ListByTask(ctx context.Context, taskID string) ([]model.TaskHistory, error) {
	r.logger.Debug("Listing task history", zap.String("task_id", taskID))

	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id, task_id, action, actor, created_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY created_at DESC, id DESC
	`, taskID)
	if err != nil {
		r.logger.Error("Failed to query task history", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []model.TaskHistory{}
	for rows.Next() {
		var h model.TaskHistory
		if err := rows.Scan(&h.ID, &h.TaskID, &h.Action, &h.Actor, &h.CreatedAt); err != nil {
			r.logger.Error("Failed to scan task history row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("Task history listed successfully", zap.String("task_id", taskID), zap.Int("count", len(entries)))
	return entries, nil
}
