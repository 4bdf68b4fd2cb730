package schedule

import (
	"fmt"
	"math"

	"sitemaster/internal/model"
)

// CompletionPercent is the fixed completion a status stands for.
// Statuses are validated when tasks are built, so an unknown value here is a bug.
func CompletionPercent(s model.TaskStatus) float64 {
	switch s {
	case model.TaskDone:
		return 100
	case model.TaskInProgress:
		return 50
	case model.TaskToDo, model.TaskReview:
		return 0
	}
	panic(fmt.Sprintf("schedule: unknown task status %q", s))
}

// ProjectEarned is the earned-value breakdown of a single project.
type ProjectEarned struct {
	ProjectID       string  `json:"project_id"`
	Budget          float64 `json:"budget"`
	TotalWeight     float64 `json:"total_weight"`
	CompletedWeight float64 `json:"completed_weight"`
	Ratio           float64 `json:"ratio"`
	Earned          float64 `json:"earned"`
}

type Financials struct {
	TotalBudget    float64         `json:"total_budget"`
	TotalEarned    float64         `json:"total_earned"`
	GlobalProgress float64         `json:"global_progress"`
	Projects       []ProjectEarned `json:"projects"`
}

// EarnProject weighs task completion by task weight. A project without weighted
// tasks earns nothing; its manually entered Progress is ignored.
func EarnProject(p *model.Project) ProjectEarned {
	var weight, completed float64
	for i := range p.Tasks {
		t := &p.Tasks[i]
		weight += t.Weight
		completed += (t.Weight * CompletionPercent(t.Status)) / 100
	}

	ratio := 0.0
	if weight > 0 {
		ratio = completed / weight
	}

	return ProjectEarned{
		ProjectID:       p.ID,
		Budget:          p.Budget,
		TotalWeight:     weight,
		CompletedWeight: completed,
		Ratio:           ratio,
		Earned:          p.Budget * ratio,
	}
}

// Aggregate sums earned value across projects and derives the budget-weighted progress.
func Aggregate(projects []model.Project) Financials {
	f := Financials{Projects: make([]ProjectEarned, 0, len(projects))}
	for i := range projects {
		pe := EarnProject(&projects[i])
		f.TotalBudget += pe.Budget
		f.TotalEarned += pe.Earned
		f.Projects = append(f.Projects, pe)
	}
	if f.TotalBudget > 0 {
		f.GlobalProgress = (f.TotalEarned / f.TotalBudget) * 100
	}
	return f
}

// DurationDays is the number of calendar days from start to end, rounded up.
func DurationDays(start, end model.Date) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return int(math.Ceil(end.Sub(start.Time).Hours() / 24))
}
