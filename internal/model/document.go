package model

import (
	"fmt"
	"strings"
	"time"
)

// Document is metadata for a file attached to a project. The file itself lives elsewhere.
type Document struct {
	ID         string       `json:"id"`
	ProjectID  string       `json:"project_id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	URL        string       `json:"url"`
	Size       string       `json:"size,omitempty"`
	UploadDate time.Time    `json:"upload_date"`
}

func (d *Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("%w: url", ErrMissingField)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: document type %q", ErrInvalidEnum, d.Type)
	}
	return nil
}

// EarnedValueSnapshot records a project's derived progress at a point in time.
type EarnedValueSnapshot struct {
	ID              int64     `json:"id"`
	ProjectID       string    `json:"project_id"`
	Budget          float64   `json:"budget"`
	TotalWeight     float64   `json:"total_weight"`
	CompletedWeight float64   `json:"completed_weight"`
	Ratio           float64   `json:"ratio"`
	Earned          float64   `json:"earned"`
	Trigger         string    `json:"trigger"`
	RecordedAt      time.Time `json:"recorded_at"`
}
