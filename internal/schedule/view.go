package schedule

import (
	"fmt"

	"sitemaster/internal/model"
)

type ViewMode string

const (
	ViewSingle ViewMode = "single"
	ViewAll    ViewMode = "all"
)

// ParseViewMode defaults to single-project mode when raw is empty.
func ParseViewMode(raw string) (ViewMode, error) {
	switch ViewMode(raw) {
	case "", ViewSingle:
		return ViewSingle, nil
	case ViewAll:
		return ViewAll, nil
	}
	return "", fmt.Errorf("%w: view mode %q", model.ErrInvalidEnum, raw)
}

// Select narrows projects to what a view mode displays. An unknown id in single mode
// yields an empty selection.
func Select(projects []model.Project, mode ViewMode, projectID string) []model.Project {
	if mode == ViewAll {
		return projects
	}
	for i := range projects {
		if projects[i].ID == projectID {
			return projects[i : i+1]
		}
	}
	return []model.Project{}
}

type TaskBar struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Status       model.TaskStatus   `json:"status"`
	Priority     model.TaskPriority `json:"priority"`
	Assignee     string             `json:"assignee,omitempty"`
	Start        model.Date         `json:"start"`
	Due          model.Date         `json:"due"`
	Weight       float64            `json:"weight"`
	Completion   float64            `json:"completion"`
	Offset       float64            `json:"offset"`
	Width        float64            `json:"width"`
	DurationDays int                `json:"duration_days"`
}

// ProjectRow keeps the manual Progress and the derived EarnedProgress side by side.
type ProjectRow struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Status         model.ProjectStatus `json:"status"`
	Start          model.Date          `json:"start"`
	End            model.Date          `json:"end"`
	Progress       float64             `json:"progress"`
	EarnedProgress float64             `json:"earned_progress"`
	Offset         float64             `json:"offset"`
	Width          float64             `json:"width"`
	DurationDays   int                 `json:"duration_days"`
	Tasks          []TaskBar           `json:"tasks"`
}

type Summary struct {
	ProjectCount int `json:"project_count"`
	TaskCount    int `json:"task_count"`
}

type View struct {
	Mode       ViewMode     `json:"mode"`
	Range      Range        `json:"range"`
	Rows       []ProjectRow `json:"rows"`
	Summary    Summary      `json:"summary"`
	Financials Financials   `json:"financials"`
}

// BuildView lays out every displayed project and its tasks on one resolved range.
func BuildView(projects []model.Project, mode ViewMode, resolver *Resolver) View {
	rng := resolver.Resolve(projects)
	fin := Aggregate(projects)

	rows := make([]ProjectRow, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		row := ProjectRow{
			ID:             p.ID,
			Name:           p.Name,
			Status:         p.Status,
			Start:          p.StartDate,
			End:            p.EndDate,
			Progress:       p.Progress,
			EarnedProgress: fin.Projects[i].Ratio * 100,
			Offset:         rng.Position(rng.At(p.StartDate)),
			Width:          rng.Width(rng.At(p.StartDate), rng.At(p.EndDate)),
			DurationDays:   DurationDays(p.StartDate, p.EndDate),
			Tasks:          make([]TaskBar, 0, len(p.Tasks)),
		}
		for j := range p.Tasks {
			t := &p.Tasks[j]
			start := t.EffectiveStart(p.StartDate)
			row.Tasks = append(row.Tasks, TaskBar{
				ID:           t.ID,
				Title:        t.Title,
				Status:       t.Status,
				Priority:     t.Priority,
				Assignee:     t.Assignee,
				Start:        start,
				Due:          t.DueDate,
				Weight:       t.Weight,
				Completion:   CompletionPercent(t.Status),
				Offset:       rng.Position(rng.At(start)),
				Width:        rng.Width(rng.At(start), rng.At(t.DueDate)),
				DurationDays: DurationDays(start, t.DueDate),
			})
		}
		rows = append(rows, row)
	}

	return View{
		Mode:  mode,
		Range: rng,
		Rows:  rows,
		Summary: Summary{
			ProjectCount: len(projects),
			TaskCount:    model.TaskCount(projects),
		},
		Financials: fin,
	}
}
