// Package handlers implements the portal API endpoints.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tigearis/payroll-billing/internal/models"
)

// clientFromContext returns the client loaded by the auth middleware.
func clientFromContext(c *gin.Context) (models.Client, bool) {
	value, exists := c.Get("client")
	if !exists {
		return models.Client{}, false
	}
	client, ok := value.(models.Client)
	return client, ok
}
