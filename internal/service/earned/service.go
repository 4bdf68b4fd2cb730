// Package earned records and lists earned-value snapshots of single projects.
package earned

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sitemaster/internal/model"
	"sitemaster/internal/schedule"
	"sitemaster/pkg/logger"
	"sitemaster/pkg/metrics"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ProjectSource loads a project with its tasks attached.
type ProjectSource interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
}

type SnapshotStore interface {
	Insert(ctx context.Context, s *model.EarnedValueSnapshot) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]model.EarnedValueSnapshot, error)
}

type Service struct {
	projects  ProjectSource
	snapshots SnapshotStore
	logger    *zap.Logger
}

func NewService(projects ProjectSource, snapshots SnapshotStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{projects: projects, snapshots: snapshots, logger: logger}
}

// RecordSnapshot computes the project's current earned value and stores it.
func (s *Service) RecordSnapshot(ctx context.Context, projectID, trigger string) (*model.EarnedValueSnapshot, error) {
	log := logger.WithTrace(ctx, s.logger)

	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	pe := schedule.EarnProject(p)
	snap := &model.EarnedValueSnapshot{
		ProjectID:       pe.ProjectID,
		Budget:          pe.Budget,
		TotalWeight:     pe.TotalWeight,
		CompletedWeight: pe.CompletedWeight,
		Ratio:           pe.Ratio,
		Earned:          pe.Earned,
		Trigger:         trigger,
	}
	if err := s.snapshots.Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	metrics.IncrementEarnedValueSnapshot(trigger)

	log.Info("Earned value snapshot recorded",
		zap.String("project_id", projectID),
		zap.String("trigger", trigger),
		zap.Float64("ratio", pe.Ratio),
		zap.Float64("earned", pe.Earned),
	)
	return snap, nil
}

// History returns the newest snapshots first. limit is clamped to (0, MaxHistoryLimit].
func (s *Service) History(ctx context.Context, projectID string, limit int) ([]model.EarnedValueSnapshot, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.snapshots.ListByProject(ctx, projectID, limit)
}
