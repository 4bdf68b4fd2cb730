package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitemaster/internal/taskimport"
)

// MaxImportBytes bounds an uploaded CSV.
const MaxImportBytes = 5 << 20

// ImportTasks handles POST /projects/:id/tasks/import
// 接受 multipart 的 file 字段，或直接以 text/csv 作为请求体
func (h *ProjectHandler) ImportTasks(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	projectID := c.Param("id")
	h.logger.Info("Import tasks request received",
		zap.String("user_id", actor.UserID),
		zap.String("project_id", projectID),
		zap.String("content_type", c.ContentType()),
	)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImportBytes)

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer f.Close()
		body = f
	}

	res, err := h.projects.ImportTasks(c.Request.Context(), actor, projectID, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		respondError(c, h.logger, "Import tasks", err)
		return
	}

	h.logger.Info("Import tasks: success",
		zap.String("project_id", projectID),
		zap.Int("added", res.Added),
		zap.Int("skipped", len(res.Skipped)),
	)
	c.JSON(http.StatusOK, res)
}

// Template handles GET /schedule/template
func Template(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="`+taskimport.TemplateFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", taskimport.Template())
}
