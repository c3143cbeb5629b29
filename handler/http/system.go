package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CheckHealth reports the status of the system's dependencies
func (h *Handler) CheckHealth(c *gin.Context) {
	status, err := h.systemService.CheckHealth(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
