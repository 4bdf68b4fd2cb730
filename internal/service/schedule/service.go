// Package schedule serves Gantt views built from the current project store, cached in Redis.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sitemaster/internal/model"
	sched "sitemaster/internal/schedule"
	"sitemaster/pkg/logger"
	"sitemaster/pkg/metrics"
	"sitemaster/pkg/otel"
)

type ProjectLister interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
}

type Service struct {
	projects ProjectLister
	cache    Cache
	resolver *sched.Resolver
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
	group    singleflight.Group
}

type Option func(*Service)

// WithCache enables view caching. Without it every request rebuilds the view.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(projects ProjectLister, resolver *sched.Resolver, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		projects: projects,
		resolver: resolver,
		ttl:      5 * time.Minute,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View builds the Gantt view for mode. In single mode an empty projectID selects the
// first project; an unknown id yields an empty view.
func (s *Service) View(ctx context.Context, mode sched.ViewMode, projectID string) (*sched.View, error) {
	log := logger.WithTrace(ctx, s.logger)

	key := ""
	if s.cache != nil {
		version, err := s.cache.Version(ctx)
		if err != nil {
			metrics.IncrementScheduleCache("error")
			log.Warn("Schedule cache version lookup failed", zap.Error(err))
		} else {
			today := s.now().In(s.resolver.Location())
			key = viewKey(version, string(mode), projectID, today)
			if v, ok := s.lookup(ctx, key); ok {
				return v, nil
			}
		}
	}

	// concurrent misses for the same key share one build; it must outlive any single caller
	groupKey := key
	if groupKey == "" {
		groupKey = string(mode) + ":" + projectID
	}
	buildCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(groupKey, func() (any, error) {
		return s.build(buildCtx, mode, projectID, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sched.View), nil
	}
}

func (s *Service) lookup(ctx context.Context, key string) (*sched.View, bool) {
	log := logger.WithTrace(ctx, s.logger)

	raw, err := s.cache.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		metrics.IncrementScheduleCache("miss")
		return nil, false
	}
	if err != nil {
		metrics.IncrementScheduleCache("error")
		log.Warn("Schedule cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var v sched.View
	if err := json.Unmarshal(raw, &v); err != nil {
		metrics.IncrementScheduleCache("error")
		log.Warn("Discarding unreadable cached view", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	metrics.IncrementScheduleCache("hit")
	return &v, true
}

func (s *Service) build(ctx context.Context, mode sched.ViewMode, projectID, key string) (*sched.View, error) {
	ctx, span := otel.StartSpan(ctx, "schedule.build_view")
	defer span.End()

	log := logger.WithTrace(ctx, s.logger)
	started := time.Now()

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if mode == sched.ViewSingle && projectID == "" && len(projects) > 0 {
		projectID = projects[0].ID
	}

	v := sched.BuildView(sched.Select(projects, mode, projectID), mode, s.resolver)
	metrics.RecordScheduleBuild(string(mode), time.Since(started))

	if key != "" {
		s.store(ctx, key, &v)
	}

	log.Debug("Schedule view built",
		zap.String("mode", string(mode)),
		zap.String("project_id", projectID),
		zap.Int("projects", v.Summary.ProjectCount),
		zap.Int("tasks", v.Summary.TaskCount),
	)
	return &v, nil
}

func (s *Service) store(ctx context.Context, key string, v *sched.View) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("Failed to encode view for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Schedule cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every cached view.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	NewInvalidator(s.cache, s.logger).Invalidate(ctx)
}
