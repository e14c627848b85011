package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthController reports liveness and build information.
type HealthController struct {
	version string
}

func NewHealthController(version string) *HealthController {
	return &HealthController{version: version}
}

// Health responds to liveness probes.
// GET /health
func (hc *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": hc.version,
	})
}
