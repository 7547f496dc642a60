package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/projectctx"
	"github.com/yoockh/cinedesk/internal/services"
	"github.com/yoockh/cinedesk/internal/utils"
)

const (
	defaultAccessLimit = 50
	maxAccessLimit     = 200
)

type ProjectHandler struct {
	shares   services.ShareService
	projects services.ProjectService
}

func NewProjectHandler(shares services.ShareService, projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{shares: shares, projects: projects}
}

type ProjectContextResponse struct {
	ProjectID string `json:"projectId"`
}

type ShareAccessResponse struct {
	Accesses []models.ShareAccess `json:"accesses"`
}

func scopedProject(c *gin.Context, op string) (string, bool) {
	id, ok := projectctx.FromContext(c.Request.Context())
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, services.MsgProjectRequired, nil))
	}
	return id, ok
}

// Context handles GET /api/projects/:project_id/context.
func (h *ProjectHandler) Context(c *gin.Context) {
	id, ok := scopedProject(c, "ProjectHandler.Context")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ProjectContextResponse{ProjectID: id})
}

// ShareAccess handles GET /api/projects/:project_id/share-access.
func (h *ProjectHandler) ShareAccess(c *gin.Context) {
	const op = "ProjectHandler.ShareAccess"

	id, ok := scopedProject(c, op)
	if !ok {
		return
	}
	if err := h.projects.Authorize(c.Request.Context(), callerFrom(c), id); err != nil {
		writeError(c, err)
		return
	}

	limit := int64(defaultAccessLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "limit must be a positive integer", err))
			return
		}
		limit = min(n, maxAccessLimit)
	}

	rows, err := h.shares.RecentAccess(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ShareAccessResponse{Accesses: rows})
}
