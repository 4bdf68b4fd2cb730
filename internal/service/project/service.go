// Package project owns every mutation of projects, tasks and documents.
package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "sitemaster/contracts/mq"
	"sitemaster/internal/model"
	"sitemaster/internal/repository"
	"sitemaster/pkg/logger"
	"sitemaster/pkg/trace"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrDocumentNotFound = errors.New("document not found")
)

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProjectStore interface {
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	Insert(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	ListByProjects(ctx context.Context, projectIDs []string) (map[string][]model.Task, error)
	Get(ctx context.Context, projectID, taskID string) (*model.Task, error)
	NextPosition(ctx context.Context, projectID string) (int, error)
	Insert(ctx context.Context, t *model.Task) error
	InsertMany(ctx context.Context, tasks []model.Task) (int64, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, projectID, taskID string) error
}

type DocumentStore interface {
	ListByProjects(ctx context.Context, projectIDs []string) (map[string][]model.Document, error)
	Insert(ctx context.Context, d *model.Document) error
	Delete(ctx context.Context, projectID, docID string) error
}

type HistoryStore interface {
	Insert(ctx context.Context, h *model.TaskHistory) error
	InsertMany(ctx context.Context, entries []model.TaskHistory) (int64, error)
	ListByTask(ctx context.Context, taskID string) ([]model.TaskHistory, error)
}

// EventStore queues a change event in the current transaction.
type EventStore interface {
	Enqueue(ctx context.Context, aggregateType, aggregateID, routingKey string, payload any) error
}

// Invalidator drops cached schedule views after a committed change.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Deps struct {
	Tx        TxRunner
	Projects  ProjectStore
	Tasks     TaskStore
	Documents DocumentStore
	History   HistoryStore
	Events    EventStore
	Cache     Invalidator
	Logger    *zap.Logger
	NewID     func() string
	Now       func() time.Time
}

type Service struct {
	tx        TxRunner
	projects  ProjectStore
	tasks     TaskStore
	documents DocumentStore
	history   HistoryStore
	events    EventStore
	cache     Invalidator
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		tx:        d.Tx,
		projects:  d.Projects,
		tasks:     d.Tasks,
		documents: d.Documents,
		history:   d.History,
		events:    d.Events,
		cache:     d.Cache,
		logger:    d.Logger,
		newID:     d.NewID,
		now:       d.Now,
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ListProjects returns every project with its tasks and documents attached.
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if err := s.attachChildren(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrProjectNotFound)
	}
	one := []model.Project{*p}
	if err := s.attachChildren(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *Service) attachChildren(ctx context.Context, projects []model.Project) error {
	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}

	tasks, err := s.tasks.ListByProjects(ctx, ids)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	docs, err := s.documents.ListByProjects(ctx, ids)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for i := range projects {
		p := &projects[i]
		p.Tasks = tasks[p.ID]
		if p.Tasks == nil {
			p.Tasks = []model.Task{}
		}
		p.Documents = docs[p.ID]
		if p.Documents == nil {
			p.Documents = []model.Document{}
		}
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, actor model.Actor, p model.Project) (*model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)

	if p.ID == "" {
		p.ID = s.newID()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.projects.Insert(ctx, &p); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return s.emitProject(ctx, actor, p.ID, mqcontracts.ActionCreated)
	})
	if err != nil {
		log.Error("Create project failed", zap.String("project_id", p.ID), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	p.Tasks = []model.Task{}
	p.Documents = []model.Document{}
	log.Info("Project created", zap.String("project_id", p.ID), zap.String("actor", actor.UserID))
	return &p, nil
}

func (s *Service) UpdateProject(ctx context.Context, actor model.Actor, id string, patch ProjectPatch) (*model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.projects.Get(ctx, id)
		if err != nil {
			return mapNotFound(err, ErrProjectNotFound)
		}
		patch.Apply(p)
		if err := p.Validate(); err != nil {
			return err
		}
		if err := s.projects.Update(ctx, p); err != nil {
			return mapNotFound(err, ErrProjectNotFound)
		}
		return s.emitProject(ctx, actor, id, mqcontracts.ActionUpdated)
	})
	if err != nil {
		log.Warn("Update project failed", zap.String("project_id", id), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	log.Info("Project updated", zap.String("project_id", id), zap.String("actor", actor.UserID))
	return s.GetProject(ctx, id)
}

// DeleteProject removes the project with its tasks, documents, history and snapshots.
func (s *Service) DeleteProject(ctx context.Context, actor model.Actor, id string) error {
	log := logger.WithTrace(ctx, s.logger)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.projects.Delete(ctx, id); err != nil {
			return mapNotFound(err, ErrProjectNotFound)
		}
		return s.emitProject(ctx, actor, id, mqcontracts.ActionDeleted)
	})
	if err != nil {
		log.Warn("Delete project failed", zap.String("project_id", id), zap.Error(err))
		return err
	}

	s.invalidate(ctx)
	log.Info("Project deleted", zap.String("project_id", id), zap.String("actor", actor.UserID))
	return nil
}

func (s *Service) AddDocument(ctx context.Context, actor model.Actor, projectID string, d model.Document) (*model.Document, error) {
	if d.ID == "" {
		d.ID = s.newID()
	}
	d.ProjectID = projectID
	if err := d.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.projects.Get(ctx, projectID); err != nil {
			return mapNotFound(err, ErrProjectNotFound)
		}
		return s.documents.Insert(ctx, &d)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("Document added",
		zap.String("project_id", projectID),
		zap.String("document_id", d.ID),
		zap.String("actor", actor.UserID),
	)
	return &d, nil
}

func (s *Service) DeleteDocument(ctx context.Context, actor model.Actor, projectID, docID string) error {
	if err := s.documents.Delete(ctx, projectID, docID); err != nil {
		return mapNotFound(err, ErrDocumentNotFound)
	}
	logger.WithTrace(ctx, s.logger).Info("Document deleted",
		zap.String("project_id", projectID),
		zap.String("document_id", docID),
		zap.String("actor", actor.UserID),
	)
	return nil
}

func (s *Service) emitProject(ctx context.Context, actor model.Actor, projectID, action string) error {
	payload := mqcontracts.ProjectChangedPayload{
		EventID:    s.newID(),
		ProjectID:  projectID,
		Action:     action,
		Actor:      actor.UserID,
		TraceID:    trace.FromContext(ctx),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Enqueue(ctx, "project", projectID, mqcontracts.RoutingProjectChanged, payload); err != nil {
		return fmt.Errorf("enqueue project event: %w", err)
	}
	return nil
}

func (s *Service) emitTasks(ctx context.Context, actor model.Actor, projectID string, taskIDs []string, action string) error {
	payload := mqcontracts.TaskChangedPayload{
		EventID:    s.newID(),
		ProjectID:  projectID,
		TaskIDs:    taskIDs,
		Action:     action,
		Actor:      actor.UserID,
		TraceID:    trace.FromContext(ctx),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Enqueue(ctx, "task", projectID, mqcontracts.RoutingTaskChanged, payload); err != nil {
		return fmt.Errorf("enqueue task event: %w", err)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func mapNotFound(err, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}
