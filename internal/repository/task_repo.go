package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sitemaster/internal/model"
	"sitemaster/pkg/otel"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, project_id, title, status, priority, start_date, due_date, assignee,
	description, weight, position, created_at, updated_at`

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t                model.Task
		status, priority string
		start            *time.Time
		due              time.Time
	)
	if err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&status,
		&priority,
		&start,
		&due,
		&t.Assignee,
		&t.Description,
		&t.Weight,
		&t.Position,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return model.Task{}, err
	}

	var err error
	if t.Status, err = model.ParseTaskStatus(status); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if t.Priority, err = model.ParseTaskPriority(priority); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.StartDate = optionalDate(start)
	t.DueDate = model.NewDate(due)
	return t, nil
}

// ListByProjects groups tasks by project id, each group in position order.
func (r *TaskRepository) ListByProjects(ctx context.Context, projectIDs []string) (map[string][]model.Task, error) {
	r.logger.Debug("Listing tasks", zap.Int("project_count", len(projectIDs)))

	out := make(map[string][]model.Task, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	count := 0
	err := otel.WithDBSpan(ctx, "tasks.list", func(ctx context.Context) error {
		rows, err := conn(ctx, r.db).Query(ctx, `
			SELECT `+taskColumns+`
			FROM tasks
			WHERE project_id = ANY($1)
			ORDER BY project_id, position ASC, created_at ASC
		`, projectIDs)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out[t.ProjectID] = append(out[t.ProjectID], t)
			count++
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, err
	}

	r.logger.Info("Tasks listed successfully", zap.Int("count", count))
	return out, nil
}

func (r *TaskRepository) Get(ctx context.Context, projectID, taskID string) (*model.Task, error) {
	r.logger.Debug("Getting task", zap.String("project_id", projectID), zap.String("task_id", taskID))

	t, err := scanTask(conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = $1 AND id = $2
	`, projectID, taskID))
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}
	return &t, nil
}

// NextPosition is one past the highest position in the project.
func (r *TaskRepository) NextPosition(ctx context.Context, projectID string) (int, error) {
	var next int
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE project_id = $1
	`, projectID).Scan(&next)
	if err != nil {
		r.logger.Error("Failed to compute next task position", zap.String("project_id", projectID), zap.Error(err))
		return 0, err
	}
	return next, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.String("task_id", t.ID),
		zap.String("project_id", t.ProjectID),
		zap.String("title", t.Title),
		zap.String("status", string(t.Status)),
	)

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO tasks (id, project_id, title, status, priority, start_date, due_date, assignee,
			description, weight, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`,
		t.ID,
		t.ProjectID,
		t.Title,
		string(t.Status),
		string(t.Priority),
		optionalDateArg(t.StartDate),
		dateArg(t.DueDate),
		t.Assignee,
		t.Description,
		t.Weight,
		t.Position,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.String("task_id", t.ID), zap.Error(err))
		return err
	}

	r.logger.Info("Task inserted successfully", zap.String("task_id", t.ID), zap.String("project_id", t.ProjectID))
	return nil
}

// InsertMany bulk-loads tasks with COPY. Timestamps are left to column defaults.
func (r *TaskRepository) InsertMany(ctx context.Context, tasks []model.Task) (int64, error) {
	r.logger.Debug("Bulk inserting tasks", zap.Int("count", len(tasks)))
	if len(tasks) == 0 {
		return 0, nil
	}

	n, err := conn(ctx, r.db).CopyFrom(ctx,
		pgx.Identifier{"tasks"},
		[]string{"id", "project_id", "title", "status", "priority", "start_date", "due_date",
			"assignee", "description", "weight", "position"},
		pgx.CopyFromSlice(len(tasks), func(i int) ([]any, error) {
			t := tasks[i]
			return []any{
				t.ID,
				t.ProjectID,
				t.Title,
				string(t.Status),
				string(t.Priority),
				optionalDateArg(t.StartDate),
				dateArg(t.DueDate),
				t.Assignee,
				t.Description,
				t.Weight,
				t.Position,
			}, nil
		}),
	)
	if err != nil {
		r.logger.Error("Failed to bulk insert tasks", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Tasks bulk inserted successfully", zap.Int64("rows", n))
	return n, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Updating task", zap.String("task_id", t.ID), zap.String("status", string(t.Status)))

	err := conn(ctx, r.db).QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, status = $4, priority = $5, start_date = $6, due_date = $7, assignee = $8,
			description = $9, weight = $10, position = $11, updated_at = NOW()
		WHERE project_id = $1 AND id = $2
		RETURNING updated_at
	`,
		t.ProjectID,
		t.ID,
		t.Title,
		string(t.Status),
		string(t.Priority),
		optionalDateArg(t.StartDate),
		dateArg(t.DueDate),
		t.Assignee,
		t.Description,
		t.Weight,
		t.Position,
	).Scan(&t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update task", zap.String("task_id", t.ID), zap.Error(err))
		return notFound(err, "task", t.ID)
	}

	r.logger.Info("Task updated successfully", zap.String("task_id", t.ID))
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, projectID, taskID string) error {
	r.logger.Debug("Deleting task", zap.String("project_id", projectID), zap.String("task_id", taskID))

	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM tasks WHERE project_id = $1 AND id = $2`, projectID, taskID)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.String("task_id", taskID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	r.logger.Info("Task deleted successfully", zap.String("task_id", taskID))
	return nil
}
