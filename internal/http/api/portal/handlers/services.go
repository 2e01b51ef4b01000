package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/store"
)

// ServiceHandler lists sellable services for the portal.
type ServiceHandler struct {
	db    *gorm.DB
	rules *refresh.Manager
}

// NewServiceHandler constructs a ServiceHandler.
func NewServiceHandler(db *gorm.DB, rules *refresh.Manager) *ServiceHandler {
	return &ServiceHandler{db: db, rules: rules}
}

// List returns all active services with the authenticated client's effective
// rate, computed by running the engine at quantity 1 against the stored
// profile. Inactive services never appear regardless of subscriptions.
func (h *ServiceHandler) List(c *gin.Context) {
	client, ok := clientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}

	var rows []models.Service
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("category ASC, name ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	engine := h.rules.Current().Engine
	pctx := contextFromClient(client)
	pctx.Quantity = 1

	services := make([]gin.H, 0, len(rows))
	for i := range rows {
		service := store.ToEngineService(&rows[i])
		result := engine.CalculatePrice(service, pctx, nil)
		services = append(services, gin.H{
			"service_id":     rows[i].ServiceID,
			"name":           rows[i].Name,
			"category":       rows[i].Category,
			"description":    rows[i].Description,
			"default_rate":   rows[i].DefaultRate,
			"effective_rate": result.FinalRate,
			"billing_unit":   rows[i].BillingUnit,
		})
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}
