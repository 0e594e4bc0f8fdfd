package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}
