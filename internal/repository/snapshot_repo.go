package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sitemaster/internal/model"
)

type SnapshotRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSnapshotRepository(db *pgxpool.Pool, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, logger: logger}
}

func (r *SnapshotRepository) Insert(ctx context.Context, s *model.EarnedValueSnapshot) error {
	r.logger.Debug("Inserting earned value snapshot",
		zap.String("project_id", s.ProjectID),
		zap.String("trigger", s.Trigger),
	)

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO earned_value_snapshots (project_id, budget, total_weight, completed_weight, ratio, earned, trigger)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, recorded_at
	`, s.ProjectID, s.Budget, s.TotalWeight, s.CompletedWeight, s.Ratio, s.Earned, s.Trigger).
		Scan(&s.ID, &s.RecordedAt)
	if err != nil {
		r.logger.Error("Failed to insert earned value snapshot", zap.String("project_id", s.ProjectID), zap.Error(err))
		return err
	}

	r.logger.Info("Earned value snapshot recorded",
		zap.String("project_id", s.ProjectID),
		zap.Int64("snapshot_id", s.ID),
	)
	return nil
}

// ListByProject returns at most limit snapshots, newest first.
func (r *SnapshotRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]model.EarnedValueSnapshot, error) {
	r.logger.Debug("Listing earned value snapshots", zap.String("project_id", projectID), zap.Int("limit", limit))

	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id, project_id, budget, total_weight, completed_weight, ratio, earned, trigger, recorded_at
		FROM earned_value_snapshots
		WHERE project_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		r.logger.Error("Failed to query snapshots", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.EarnedValueSnapshot{}
	for rows.Next() {
		var s model.EarnedValueSnapshot
		if err := rows.Scan(
			&s.ID,
			&s.ProjectID,
			&s.Budget,
			&s.TotalWeight,
			&s.CompletedWeight,
			&s.Ratio,
			&s.Earned,
			&s.Trigger,
			&s.RecordedAt,
		); err != nil {
			r.logger.Error("Failed to scan snapshot row", zap.Error(err))
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("Snapshots listed successfully", zap.String("project_id", projectID), zap.Int("count", len(out)))
	return out, nil
}
