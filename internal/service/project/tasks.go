package project

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	mqcontracts "sitemaster/contracts/mq"
	"sitemaster/internal/model"
	"sitemaster/internal/taskimport"
	"sitemaster/pkg/logger"
	"sitemaster/pkg/metrics"
)

// History actions.
const (
	HistoryCreated  = "created"
	HistoryImported = "imported"
	HistoryUpdated  = "updated"
	HistoryStatus   = "status"
)

// AddTask appends t to the project. Status defaults to To Do and priority to Medium.
func (s *Service) AddTask(ctx context.Context, actor model.Actor, projectID string, t model.Task) (*model.Task, error) {
	log := logger.WithTrace(ctx, s.logger)

	if t.ID == "" {
		t.ID = s.newID()
	}
	t.ProjectID = projectID
	if t.Status == "" {
		t.Status = model.TaskToDo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.projects.Get(ctx, projectID); err != nil {
			return mapNotFound(err, ErrProjectNotFound)
		}
		pos, err := s.tasks.NextPosition(ctx, projectID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		t.Position = pos

		if err := s.tasks.Insert(ctx, &t); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if err := s.record(ctx, t.ID, HistoryCreated, actor); err != nil {
			return err
		}
		return s.emitTasks(ctx, actor, projectID, []string{t.ID}, mqcontracts.ActionCreated)
	})
	if err != nil {
		log.Warn("Add task failed", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	log.Info("Task added",
		zap.String("project_id", projectID),
		zap.String("task_id", t.ID),
		zap.String("actor", actor.UserID),
	)
	return &t, nil
}

// UpdateTask applies patch and records one history entry for the status change and one
// for any other fields.
func (s *Service) UpdateTask(ctx context.Context, actor model.Actor, projectID, taskID string, patch TaskPatch) (*model.Task, error) {
	log := logger.WithTrace(ctx, s.logger)

	var updated *model.Task
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.tasks.Get(ctx, projectID, taskID)
		if err != nil {
			return mapNotFound(err, ErrTaskNotFound)
		}
		before := t.Status

		patch.Apply(t)
		if err := t.Validate(); err != nil {
			return err
		}
		if err := s.tasks.Update(ctx, t); err != nil {
			return mapNotFound(err, ErrTaskNotFound)
		}

		if patch.Status != nil && before != t.Status {
			if err := s.record(ctx, t.ID, fmt.Sprintf("%s: %s -> %s", HistoryStatus, before, t.Status), actor); err != nil {
				return err
			}
		}
		if others := otherFields(patch); len(others) > 0 {
			if err := s.record(ctx, t.ID, HistoryUpdated+": "+strings.Join(others, ", "), actor); err != nil {
				return err
			}
		}

		action := mqcontracts.ActionUpdated
		if patch.StatusOnly() {
			action = mqcontracts.ActionStatus
		}
		updated = t
		return s.emitTasks(ctx, actor, projectID, []string{t.ID}, action)
	})
	if err != nil {
		log.Warn("Update task failed", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	log.Info("Task updated", zap.String("task_id", taskID), zap.String("actor", actor.UserID))
	return updated, nil
}

func otherFields(p TaskPatch) []string {
	var out []string
	for _, f := range p.changedFields() {
		if f != "status" {
			out = append(out, f)
		}
	}
	return out
}

func (s *Service) DeleteTask(ctx context.Context, actor model.Actor, projectID, taskID string) error {
	log := logger.WithTrace(ctx, s.logger)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.tasks.Delete(ctx, projectID, taskID); err != nil {
			return mapNotFound(err, ErrTaskNotFound)
		}
		return s.emitTasks(ctx, actor, projectID, []string{taskID}, mqcontracts.ActionDeleted)
	})
	if err != nil {
		log.Warn("Delete task failed", zap.String("task_id", taskID), zap.Error(err))
		return err
	}

	s.invalidate(ctx)
	log.Info("Task deleted", zap.String("task_id", taskID), zap.String("actor", actor.UserID))
	return nil
}

func (s *Service) TaskHistory(ctx context.Context, projectID, taskID string) ([]model.TaskHistory, error) {
	if _, err := s.tasks.Get(ctx, projectID, taskID); err != nil {
		return nil, mapNotFound(err, ErrTaskNotFound)
	}
	entries, err := s.history.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

func (s *Service) record(ctx context.Context, taskID, action string, actor model.Actor) error {
	h := model.TaskHistory{TaskID: taskID, Action: action, Actor: actor.Label()}
	if err := s.history.Insert(ctx, &h); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

type ImportResult struct {
	Added   int                  `json:"added"`
	TaskIDs []string             `json:"task_ids"`
	Skipped []taskimport.Skipped `json:"skipped"`
}

// ImportTasks appends every valid CSV row to the project as a new task in one transaction.
func (s *Service) ImportTasks(ctx context.Context, actor model.Actor, projectID string, r io.Reader) (*ImportResult, error) {
	log := logger.WithTrace(ctx, s.logger)

	parsed, err := taskimport.Parse(r)
	if err != nil {
		return nil, err
	}

	out := &ImportResult{TaskIDs: []string{}, Skipped: parsed.Skipped}
	if out.Skipped == nil {
		out.Skipped = []taskimport.Skipped{}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.projects.Get(ctx, projectID); err != nil {
			return mapNotFound(err, ErrProjectNotFound)
		}
		if len(parsed.Rows) == 0 {
			return nil
		}

		first, err := s.tasks.NextPosition(ctx, projectID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		tasks := parsed.Tasks(projectID, first, s.newID)
		for i := range tasks {
			if err := tasks[i].Validate(); err != nil {
				return fmt.Errorf("line %d: %w", parsed.Rows[i].Line, err)
			}
		}

		if _, err := s.tasks.InsertMany(ctx, tasks); err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		entries := make([]model.TaskHistory, 0, len(tasks))
		for _, t := range tasks {
			entries = append(entries, model.TaskHistory{TaskID: t.ID, Action: HistoryImported, Actor: actor.Label()})
			out.TaskIDs = append(out.TaskIDs, t.ID)
		}
		if _, err := s.history.InsertMany(ctx, entries); err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		return s.emitTasks(ctx, actor, projectID, out.TaskIDs, mqcontracts.ActionImported)
	})
	if err != nil {
		log.Warn("Task import failed", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	out.Added = len(out.TaskIDs)
	metrics.AddTaskImport("added", out.Added)
	metrics.AddTaskImport("skipped", len(out.Skipped))
	if out.Added > 0 {
		s.invalidate(ctx)
	}

	log.Info("Tasks imported",
		zap.String("project_id", projectID),
		zap.Int("added", out.Added),
		zap.Int("skipped", len(out.Skipped)),
		zap.String("actor", actor.UserID),
	)
	return out, nil
}
