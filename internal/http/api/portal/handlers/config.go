package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tigearis/payroll-billing/internal/buildinfo"
	"github.com/tigearis/payroll-billing/internal/settings"
)

// GetPublicConfig returns site configuration safe for unauthenticated clients.
func GetPublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site_name": settings.StringValue(settings.SiteNameKey, settings.DefaultSiteName),
		"version":   buildinfo.Version,
	})
}
