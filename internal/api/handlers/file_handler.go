package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/services"
	"github.com/yoockh/cinedesk/internal/utils"
)

type FileHandler struct {
	svc services.FileService
}

func NewFileHandler(svc services.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// SignedURL handles POST /api/files/signed-url.
func (h *FileHandler) SignedURL(c *gin.Context) {
	const op = "FileHandler.SignedURL"

	var req models.SignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// unreadable bodies are reported the same as a missing path
		writeError(c, utils.E(utils.CodeInvalidArgument, op, services.MsgStoragePathRequired, err))
		return
	}

	u, err := h.svc.SignURL(c.Request.Context(), req.StoragePath, int64(req.ExpiresIn))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SignedURLResponse{SignedURL: u})
}
