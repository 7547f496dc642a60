package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/cinedesk/internal/api/middleware"
	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/utils"
)

const (
	MsgInternal      = "Internal server error"
	MsgRouteNotFound = "Not found"
)

type APIError struct {
	Error string `json:"error"`
}

// writeError renders the safe message of err. The full error is attached to
// the gin context so RequestLogger records the cause.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		c.JSON(status, APIError{Error: ae.Message})
		return
	}
	c.JSON(status, APIError{Error: MsgInternal})
}

func requestID(c *gin.Context) string {
	return c.GetString(middleware.KeyRequestID)
}

// callerFrom returns the user verified by JWTAuth; zero when unauthenticated.
func callerFrom(c *gin.Context) models.Caller {
	return models.Caller{
		UserID:      c.GetString(middleware.KeyUserID),
		AccessToken: c.GetString(middleware.KeyAccessToken),
	}
}

// NotFound renders unmatched routes in the usual error shape.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, APIError{Error: MsgRouteNotFound})
}
