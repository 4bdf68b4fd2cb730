package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Project is a construction site. Progress is the manually entered percentage and is
// independent from the earned-value ratio derived from task weights.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Location    string        `json:"location"`
	Status      ProjectStatus `json:"status"`
	Progress    float64       `json:"progress"`
	Budget      float64       `json:"budget"`
	Spent       float64       `json:"spent"`
	StartDate   Date          `json:"start_date"`
	EndDate     Date          `json:"end_date"`
	Description string        `json:"description,omitempty"`
	Client      string        `json:"client,omitempty"`
	SiteManager string        `json:"site_manager,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Tasks       []Task        `json:"tasks"`
	Documents   []Document    `json:"documents"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate checks the invariants that hold for every stored project.
// Spent is unchecked; overspend is a valid state.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: project status %q", ErrInvalidEnum, p.Status)
	}
	if math.IsNaN(p.Progress) || p.Progress < 0 || p.Progress > 100 {
		return ErrInvalidProgress
	}
	if math.IsNaN(p.Budget) || p.Budget < 0 {
		return ErrInvalidBudget
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date", ErrMissingField)
	}
	if p.EndDate.IsZero() {
		return fmt.Errorf("%w: end_date", ErrMissingField)
	}
	if p.EndDate.Before(p.StartDate.Time) {
		return ErrInvalidRange
	}
	return nil
}

// TaskCount is the number of tasks across projects.
func TaskCount(projects []Project) int {
	n := 0
	for _, p := range projects {
		n += len(p.Tasks)
	}
	return n
}
