package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbutil "github.com/tigearis/payroll-billing/internal/db"
	"github.com/tigearis/payroll-billing/internal/models"
)

// ServiceHandler manages admin CRUD endpoints for the service catalog.
type ServiceHandler struct {
	db *gorm.DB
}

// NewServiceHandler constructs a service handler.
func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// createServiceRequest captures the payload for creating a service.
type createServiceRequest struct {
	ServiceID   string   `json:"service_id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	DefaultRate *float64 `json:"default_rate"`
	BillingUnit string   `json:"billing_unit"`
	IsActive    *bool    `json:"is_active"`
}

// Create validates input and inserts a service.
func (h *ServiceHandler) Create(c *gin.Context) {
	var body createServiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	serviceID := strings.TrimSpace(body.ServiceID)
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service_id is required"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if body.DefaultRate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "default_rate is required"})
		return
	}
	if *body.DefaultRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "default_rate cannot be negative"})
		return
	}

	var exists models.Service
	if errCheck := h.db.WithContext(c.Request.Context()).Where("service_id = ?", serviceID).First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "service_id already exists"})
		return
	}

	billingUnit := strings.TrimSpace(body.BillingUnit)
	if billingUnit == "" {
		billingUnit = "payslip"
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	now := time.Now().UTC()
	service := models.Service{
		ServiceID:   serviceID,
		Name:        name,
		Category:    strings.TrimSpace(body.Category),
		Description: strings.TrimSpace(body.Description),
		DefaultRate: *body.DefaultRate,
		BillingUnit: billingUnit,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&service).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create service failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatService(&service))
}

// List returns services filtered by query parameters.
func (h *ServiceHandler) List(c *gin.Context) {
	var (
		categoryQ = strings.TrimSpace(c.Query("category"))
		isActiveQ = strings.TrimSpace(c.Query("is_active"))
		searchQ   = strings.TrimSpace(c.Query("search"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Service{})
	if categoryQ != "" {
		q = q.Where("category = ?", categoryQ)
	}
	if isActiveQ != "" {
		if isActiveQ == "true" || isActiveQ == "1" {
			q = q.Where("is_active = ?", true)
		} else if isActiveQ == "false" || isActiveQ == "0" {
			q = q.Where("is_active = ?", false)
		}
	}
	if searchQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+searchQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}

	var rows []models.Service
	if errFind := q.Order("service_id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list services failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, h.formatService(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

// Get fetches a service by its service ID.
func (h *ServiceHandler) Get(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Param("id"))
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var service models.Service
	if errFind := h.db.WithContext(c.Request.Context()).Where("service_id = ?", serviceID).First(&service).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatService(&service))
}

// updateServiceRequest captures optional fields for service updates.
type updateServiceRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	DefaultRate *float64 `json:"default_rate"`
	BillingUnit *string  `json:"billing_unit"`
	IsActive    *bool    `json:"is_active"`
}

// Update validates and applies service changes.
func (h *ServiceHandler) Update(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Param("id"))
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateServiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Service
	if errFind := h.db.WithContext(c.Request.Context()).Where("service_id = ?", serviceID).First(&existing).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil {
		value := strings.TrimSpace(*body.Name)
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = value
	}
	if body.Category != nil {
		updates["category"] = strings.TrimSpace(*body.Category)
	}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.DefaultRate != nil {
		if *body.DefaultRate < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "default_rate cannot be negative"})
			return
		}
		updates["default_rate"] = *body.DefaultRate
	}
	if body.BillingUnit != nil {
		value := strings.TrimSpace(*body.BillingUnit)
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "billing_unit cannot be empty"})
			return
		}
		updates["billing_unit"] = value
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Service{}).
		Where("service_id = ?", serviceID).
		Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a service by its service ID.
func (h *ServiceHandler) Delete(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Param("id"))
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Where("service_id = ?", serviceID).Delete(&models.Service{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// formatService converts a service row into a response payload.
func (h *ServiceHandler) formatService(service *models.Service) gin.H {
	return gin.H{
		"service_id":   service.ServiceID,
		"name":         service.Name,
		"category":     service.Category,
		"description":  service.Description,
		"default_rate": service.DefaultRate,
		"billing_unit": service.BillingUnit,
		"is_active":    service.IsActive,
		"created_at":   service.CreatedAt,
		"updated_at":   service.UpdatedAt,
	}
}
