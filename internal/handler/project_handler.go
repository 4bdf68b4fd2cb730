package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitemaster/internal/model"
	"sitemaster/internal/service/project"
	"sitemaster/pkg/rbac"
)

// ProjectService is the write side of the project store.
type ProjectService interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, actor model.Actor, p model.Project) (*model.Project, error)
	UpdateProject(ctx context.Context, actor model.Actor, id string, patch project.ProjectPatch) (*model.Project, error)
	DeleteProject(ctx context.Context, actor model.Actor, id string) error

	AddTask(ctx context.Context, actor model.Actor, projectID string, t model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, actor model.Actor, projectID, taskID string, patch project.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, actor model.Actor, projectID, taskID string) error
	TaskHistory(ctx context.Context, projectID, taskID string) ([]model.TaskHistory, error)
	ImportTasks(ctx context.Context, actor model.Actor, projectID string, r io.Reader) (*project.ImportResult, error)

	AddDocument(ctx context.Context, actor model.Actor, projectID string, d model.Document) (*model.Document, error)
	DeleteDocument(ctx context.Context, actor model.Actor, projectID, docID string) error
}

var _ ProjectService = (*project.Service)(nil)

type ProjectHandler struct {
	projects ProjectService
	logger   *zap.Logger
}

func NewProjectHandler(projects ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projects.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "List projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

// GetProject handles GET /projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Get project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	h.logger.Info("Create project request received",
		zap.String("user_id", actor.UserID),
		zap.String("name", req.Name),
	)

	p, err := h.projects.CreateProject(c.Request.Context(), actor, req.toModel())
	if err != nil {
		respondError(c, h.logger, "Create project", err)
		return
	}

	h.logger.Info("Create project: success", zap.String("project_id", p.ID))
	c.JSON(http.StatusCreated, p)
}

// UpdateProject handles PATCH /projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var patch project.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	id := c.Param("id")
	h.logger.Info("Update project request received", zap.String("user_id", actor.UserID), zap.String("project_id", id))

	p, err := h.projects.UpdateProject(c.Request.Context(), actor, id, patch)
	if err != nil {
		respondError(c, h.logger, "Update project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProject handles DELETE /projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	h.logger.Info("Delete project request received", zap.String("user_id", actor.UserID), zap.String("project_id", id))

	if err := h.projects.DeleteProject(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.logger, "Delete project", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddTask handles POST /projects/:id/tasks
func (h *ProjectHandler) AddTask(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	projectID := c.Param("id")
	h.logger.Info("Add task request received",
		zap.String("user_id", actor.UserID),
		zap.String("project_id", projectID),
		zap.String("title", req.Title),
	)

	t, err := h.projects.AddTask(c.Request.Context(), actor, projectID, req.toModel())
	if err != nil {
		respondError(c, h.logger, "Add task", err)
		return
	}

	h.logger.Info("Add task: success", zap.String("task_id", t.ID))
	c.JSON(http.StatusCreated, t)
}

// UpdateTask handles PATCH /projects/:id/tasks/:taskId
// 只改状态需要 task:status，其余字段需要 task:write
func (h *ProjectHandler) UpdateTask(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var patch project.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	required := rbac.PermissionWriteTask
	if patch.StatusOnly() {
		required = rbac.PermissionUpdateStatus
	}
	if err := rbac.CheckPermission(actor.UserID, actor.Role, required); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	projectID, taskID := c.Param("id"), c.Param("taskId")
	h.logger.Info("Update task request received",
		zap.String("user_id", actor.UserID),
		zap.String("project_id", projectID),
		zap.String("task_id", taskID),
		zap.Bool("status_only", patch.StatusOnly()),
	)

	t, err := h.projects.UpdateTask(c.Request.Context(), actor, projectID, taskID, patch)
	if err != nil {
		respondError(c, h.logger, "Update task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /projects/:id/tasks/:taskId
func (h *ProjectHandler) DeleteTask(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteTask(c.Request.Context(), actor, c.Param("id"), c.Param("taskId")); err != nil {
		respondError(c, h.logger, "Delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TaskHistory handles GET /projects/:id/tasks/:taskId/history
func (h *ProjectHandler) TaskHistory(c *gin.Context) {
	entries, err := h.projects.TaskHistory(c.Request.Context(), c.Param("id"), c.Param("taskId"))
	if err != nil {
		respondError(c, h.logger, "Task history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// AddDocument handles POST /projects/:id/documents
func (h *ProjectHandler) AddDocument(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	d, err := h.projects.AddDocument(c.Request.Context(), actor, c.Param("id"), req.toModel())
	if err != nil {
		respondError(c, h.logger, "Add document", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// DeleteDocument handles DELETE /projects/:id/documents/:docId
func (h *ProjectHandler) DeleteDocument(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteDocument(c.Request.Context(), actor, c.Param("id"), c.Param("docId")); err != nil {
		respondError(c, h.logger, "Delete document", err)
		return
	}
	c.Status(http.StatusNoContent)
}
