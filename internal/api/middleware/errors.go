package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/cinedesk/internal/utils"
)

type apiError struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, err error) {
	msg := "Internal server error"
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{Error: msg})
}
