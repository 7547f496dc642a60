package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/cinedesk/internal/projectctx"
	"github.com/yoockh/cinedesk/internal/utils"
)

const MsgProjectIDRequired = "projectId is required"

// ProjectScope binds the :project_id route parameter to the request context.
func ProjectScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("project_id"))
		if id == "" {
			abort(c, utils.E(utils.CodeInvalidArgument, "ProjectScope", MsgProjectIDRequired, nil))
			return
		}

		c.Set(projectctx.GinKey, id)
		c.Request = c.Request.WithContext(projectctx.WithProjectID(c.Request.Context(), id))
		c.Next()
	}
}
