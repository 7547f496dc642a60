package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/cinedesk/internal/services"
)

type ShareHandler struct {
	svc services.ShareService
}

func NewShareHandler(svc services.ShareService) *ShareHandler {
	return &ShareHandler{svc: svc}
}

// Get handles GET /api/share/:token. It is also mounted on /api/share/ so
// that a missing token gets a 400 instead of a 404.
func (h *ShareHandler) Get(c *gin.Context) {
	view, err := h.svc.Resolve(c.Request.Context(), c.Param("token"), services.AccessMeta{
		ClientIP:  c.ClientIP(),
		RequestID: requestID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
