package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/cinedesk/internal/utils"
)

// Recovery turns a panic into 500 {"error":"Internal server error"}.
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.WithFields(logrus.Fields{
			"request_id": c.GetString(KeyRequestID),
			"path":       c.Request.URL.Path,
			"panic":      fmt.Sprint(rec),
		}).Error("panic recovered")
		abort(c, utils.E(utils.CodeInternal, "Recovery", "", fmt.Errorf("panic: %v", rec)))
	})
}
