package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tigearis/payroll-billing/internal/buildinfo"
)

// VersionHandler handles version check endpoints.
type VersionHandler struct{}

// NewVersionHandler constructs a VersionHandler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// GetVersion returns build metadata for the running binary.
func (h *VersionHandler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    buildinfo.Version,
		"commit":     buildinfo.Commit,
		"build_date": buildinfo.BuildDate,
	})
}
