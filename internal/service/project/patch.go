package project

import (
	"sort"

	"sitemaster/internal/model"
)

// ProjectPatch is a partial update. Nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string              `json:"name"`
	Location    *string              `json:"location"`
	Status      *model.ProjectStatus `json:"status"`
	Progress    *float64             `json:"progress"`
	Budget      *float64             `json:"budget"`
	Spent       *float64             `json:"spent"`
	StartDate   *model.Date          `json:"start_date"`
	EndDate     *model.Date          `json:"end_date"`
	Description *string              `json:"description"`
	Client      *string              `json:"client"`
	SiteManager *string              `json:"site_manager"`
	ImageURL    *string              `json:"image_url"`
}

func (p ProjectPatch) Apply(dst *model.Project) {
	setIf(&dst.Name, p.Name)
	setIf(&dst.Location, p.Location)
	setIf(&dst.Status, p.Status)
	setIf(&dst.Progress, p.Progress)
	setIf(&dst.Budget, p.Budget)
	setIf(&dst.Spent, p.Spent)
	setIf(&dst.StartDate, p.StartDate)
	setIf(&dst.EndDate, p.EndDate)
	setIf(&dst.Description, p.Description)
	setIf(&dst.Client, p.Client)
	setIf(&dst.SiteManager, p.SiteManager)
	setIf(&dst.ImageURL, p.ImageURL)
}

// TaskPatch is a partial update. ClearStartDate makes the task follow its project start again.
type TaskPatch struct {
	Title          *string             `json:"title"`
	Status         *model.TaskStatus   `json:"status"`
	Priority       *model.TaskPriority `json:"priority"`
	StartDate      *model.Date         `json:"start_date"`
	ClearStartDate bool                `json:"clear_start_date"`
	DueDate        *model.Date         `json:"due_date"`
	Assignee       *string             `json:"assignee"`
	Description    *string             `json:"description"`
	Weight         *float64            `json:"weight"`
	Position       *int                `json:"position"`
}

// StatusOnly reports whether the patch changes nothing but the status.
func (p TaskPatch) StatusOnly() bool {
	return p.Status != nil && len(p.changedFields()) == 1
}

func (p TaskPatch) Empty() bool {
	return len(p.changedFields()) == 0
}

func (p TaskPatch) changedFields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Title != nil, "title")
	add(p.Status != nil, "status")
	add(p.Priority != nil, "priority")
	add(p.StartDate != nil || p.ClearStartDate, "start_date")
	add(p.DueDate != nil, "due_date")
	add(p.Assignee != nil, "assignee")
	add(p.Description != nil, "description")
	add(p.Weight != nil, "weight")
	add(p.Position != nil, "position")
	sort.Strings(fields)
	return fields
}

func (p TaskPatch) Apply(dst *model.Task) {
	setIf(&dst.Title, p.Title)
	setIf(&dst.Status, p.Status)
	setIf(&dst.Priority, p.Priority)
	if p.ClearStartDate {
		dst.StartDate = nil
	} else if p.StartDate != nil {
		d := *p.StartDate
		dst.StartDate = &d
	}
	setIf(&dst.DueDate, p.DueDate)
	setIf(&dst.Assignee, p.Assignee)
	setIf(&dst.Description, p.Description)
	setIf(&dst.Weight, p.Weight)
	setIf(&dst.Position, p.Position)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
