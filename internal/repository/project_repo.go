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

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

const projectColumns = `id, name, location, status, progress, budget, spent, start_date, end_date,
	description, client, site_manager, image_url, created_at, updated_at`

func scanProject(row pgx.Row) (model.Project, error) {
	var (
		p          model.Project
		status     string
		start, end time.Time
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Location,
		&status,
		&p.Progress,
		&p.Budget,
		&p.Spent,
		&start,
		&end,
		&p.Description,
		&p.Client,
		&p.SiteManager,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return model.Project{}, err
	}

	s, err := model.ParseProjectStatus(status)
	if err != nil {
		return model.Project{}, fmt.Errorf("project %s: %w", p.ID, err)
	}
	p.Status = s
	p.StartDate = model.NewDate(start)
	p.EndDate = model.NewDate(end)
	return p, nil
}

// List returns projects without tasks or documents, oldest start first.
func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	r.logger.Debug("Listing projects")

	projects := []model.Project{}
	err := otel.WithDBSpan(ctx, "projects.list", func(ctx context.Context) error {
		rows, err := conn(ctx, r.db).Query(ctx, `
			SELECT `+projectColumns+`
			FROM projects
			ORDER BY start_date ASC, created_at ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, err
	}

	r.logger.Info("Projects listed successfully", zap.Int("count", len(projects)))
	return projects, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*model.Project, error) {
	r.logger.Debug("Getting project", zap.String("project_id", id))

	p, err := scanProject(conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, id))
	if err != nil {
		r.logger.Debug("Project lookup failed", zap.String("project_id", id), zap.Error(err))
		return nil, notFound(err, "project", id)
	}
	return &p, nil
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.String("project_id", p.ID),
		zap.String("name", p.Name),
		zap.String("status", string(p.Status)),
	)

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO projects (id, name, location, status, progress, budget, spent, start_date, end_date,
			description, client, site_manager, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`,
		p.ID,
		p.Name,
		p.Location,
		string(p.Status),
		p.Progress,
		p.Budget,
		p.Spent,
		dateArg(p.StartDate),
		dateArg(p.EndDate),
		p.Description,
		p.Client,
		p.SiteManager,
		p.ImageURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.String("project_id", p.ID), zap.Error(err))
		return err
	}

	r.logger.Info("Project inserted successfully", zap.String("project_id", p.ID))
	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Updating project", zap.String("project_id", p.ID))

	err := conn(ctx, r.db).QueryRow(ctx, `
		UPDATE projects
		SET name = $2, location = $3, status = $4, progress = $5, budget = $6, spent = $7,
			start_date = $8, end_date = $9, description = $10, client = $11, site_manager = $12,
			image_url = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`,
		p.ID,
		p.Name,
		p.Location,
		string(p.Status),
		p.Progress,
		p.Budget,
		p.Spent,
		dateArg(p.StartDate),
		dateArg(p.EndDate),
		p.Description,
		p.Client,
		p.SiteManager,
		p.ImageURL,
	).Scan(&p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update project", zap.String("project_id", p.ID), zap.Error(err))
		return notFound(err, "project", p.ID)
	}

	r.logger.Info("Project updated successfully", zap.String("project_id", p.ID))
	return nil
}

// Delete cascades to tasks, documents, history and snapshots.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Deleting project", zap.String("project_id", id))

	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.String("project_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}

	r.logger.Info("Project deleted successfully", zap.String("project_id", id))
	return nil
}
