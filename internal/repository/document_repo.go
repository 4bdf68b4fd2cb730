package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sitemaster/internal/model"
)

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

func (r *DocumentRepository) ListByProjects(ctx context.Context, projectIDs []string) (map[string][]model.Document, error) {
	r.logger.Debug("Listing documents", zap.Int("project_count", len(projectIDs)))

	out := make(map[string][]model.Document, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id, project_id, name, type, url, size, upload_date
		FROM project_documents
		WHERE project_id = ANY($1)
		ORDER BY upload_date DESC
	`, projectIDs)
	if err != nil {
		r.logger.Error("Failed to query documents", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			d   model.Document
			typ string
		)
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Name, &typ, &d.URL, &d.Size, &d.UploadDate); err != nil {
			r.logger.Error("Failed to scan document row", zap.Error(err))
			return nil, err
		}
		if d.Type, err = model.ParseDocumentType(typ); err != nil {
			return nil, fmt.Errorf("document %s: %w", d.ID, err)
		}
		out[d.ProjectID] = append(out[d.ProjectID], d)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("Documents listed successfully", zap.Int("count", count))
	return out, nil
}

func (r *DocumentRepository) Insert(ctx context.Context, d *model.Document) error {
	r.logger.Debug("Inserting document",
		zap.String("document_id", d.ID),
		zap.String("project_id", d.ProjectID),
		zap.String("type", string(d.Type)),
	)

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO project_documents (id, project_id, name, type, url, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING upload_date
	`, d.ID, d.ProjectID, d.Name, string(d.Type), d.URL, d.Size).Scan(&d.UploadDate)
	if err != nil {
		r.logger.Error("Failed to insert document", zap.String("document_id", d.ID), zap.Error(err))
		return err
	}

	r.logger.Info("Document inserted successfully", zap.String("document_id", d.ID))
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, projectID, docID string) error {
	r.logger.Debug("Deleting document", zap.String("project_id", projectID), zap.String("document_id", docID))

	tag, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM project_documents WHERE project_id = $1 AND id = $2
	`, projectID, docID)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.String("document_id", docID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %s", ErrNotFound, docID)
	}

	r.logger.Info("Document deleted successfully", zap.String("document_id", docID))
	return nil
}
