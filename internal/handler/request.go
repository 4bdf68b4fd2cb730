package handler

import (
	"sitemaster/internal/model"
)

type createProjectRequest struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Location    string     `json:"location" binding:"max=200"`
	Status      string     `json:"status" binding:"omitempty,projectstatus"`
	Progress    float64    `json:"progress" binding:"gte=0,lte=100"`
	Budget      float64    `json:"budget" binding:"gte=0"`
	Spent       float64    `json:"spent"`
	StartDate   model.Date `json:"start_date"`
	EndDate     model.Date `json:"end_date"`
	Description string     `json:"description" binding:"max=4000"`
	Client      string     `json:"client" binding:"max=200"`
	SiteManager string     `json:"site_manager" binding:"max=200"`
	ImageURL    string     `json:"image_url" binding:"omitempty,url"`
}

func (r createProjectRequest) toModel() model.Project {
	status := model.ProjectStatus(r.Status)
	if status == "" {
		status = model.ProjectPlanning
	}
	return model.Project{
		Name:        r.Name,
		Location:    r.Location,
		Status:      status,
		Progress:    r.Progress,
		Budget:      r.Budget,
		Spent:       r.Spent,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Description: r.Description,
		Client:      r.Client,
		SiteManager: r.SiteManager,
		ImageURL:    r.ImageURL,
	}
}

type createTaskRequest struct {
	Title       string      `json:"title" binding:"required,max=300"`
	Status      string      `json:"status" binding:"omitempty,taskstatus"`
	Priority    string      `json:"priority" binding:"omitempty,taskpriority"`
	StartDate   *model.Date `json:"start_date"`
	DueDate     model.Date  `json:"due_date"`
	Assignee    string      `json:"assignee" binding:"max=200"`
	Description string      `json:"description" binding:"max=4000"`
	Weight      float64     `json:"weight" binding:"gte=0,lte=100"`
}

func (r createTaskRequest) toModel() model.Task {
	return model.Task{
		Title:       r.Title,
		Status:      model.TaskStatus(r.Status),
		Priority:    model.TaskPriority(r.Priority),
		StartDate:   r.StartDate,
		DueDate:     r.DueDate,
		Assignee:    r.Assignee,
		Description: r.Description,
		Weight:      r.Weight,
	}
}

type createDocumentRequest struct {
	Name string `json:"name" binding:"required,max=300"`
	Type string `json:"type" binding:"required,doctype"`
	URL  string `json:"url" binding:"required,url"`
	Size string `json:"size" binding:"max=50"`
}

func (r createDocumentRequest) toModel() model.Document {
	return model.Document{
		Name: r.Name,
		Type: model.DocumentType(r.Type),
		URL:  r.URL,
		Size: r.Size,
	}
}
