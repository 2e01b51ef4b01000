package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/security"
)

// ClientHandler manages admin CRUD endpoints for payroll clients.
type ClientHandler struct {
	db *gorm.DB
}

// NewClientHandler constructs a client handler.
func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

// validTiers enumerates accepted client tiers.
var validTiers = map[string]struct{}{
	string(pricing.TierStandard):   {},
	string(pricing.TierPremium):    {},
	string(pricing.TierEnterprise): {},
}

// createClientRequest captures the payload for creating a client.
type createClientRequest struct {
	ClientID             string   `json:"client_id"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Password             string   `json:"password"`
	Tier                 string   `json:"tier"`
	EmployeeCount        *int     `json:"employee_count"`
	MonthlyPayrollCount  *int     `json:"monthly_payroll_count"`
	ContractLengthMonths *int     `json:"contract_length_months"`
	IsNewClient          *bool    `json:"is_new_client"`
	SubscribedServices   []string `json:"subscribed_services"`
}

// Create validates input and inserts a client.
func (h *ClientHandler) Create(c *gin.Context) {
	var body createClientRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	clientID := strings.TrimSpace(body.ClientID)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}
	tier := strings.TrimSpace(body.Tier)
	if tier == "" {
		tier = string(pricing.TierStandard)
	}
	if _, ok := validTiers[tier]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be standard, premium or enterprise"})
		return
	}

	var exists models.Client
	if errCheck := h.db.WithContext(c.Request.Context()).
		Where("client_id = ? OR email = ?", clientID, email).
		First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "client_id or email already exists"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	subscribed := body.SubscribedServices
	if subscribed == nil {
		subscribed = []string{}
	}
	subscribedJSON, errEncode := json.Marshal(subscribed)
	if errEncode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscribed_services"})
		return
	}

	isNewClient := false
	if body.IsNewClient != nil {
		isNewClient = *body.IsNewClient
	}

	now := time.Now().UTC()
	client := models.Client{
		ClientID:             clientID,
		Name:                 name,
		Email:                email,
		Password:             hash,
		Tier:                 tier,
		EmployeeCount:        body.EmployeeCount,
		MonthlyPayrollCount:  body.MonthlyPayrollCount,
		ContractLengthMonths: body.ContractLengthMonths,
		IsNewClient:          isNewClient,
		SubscribedServices:   datatypes.JSON(subscribedJSON),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&client).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create client failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatClient(&client))
}

// List returns clients filtered by query parameters.
func (h *ClientHandler) List(c *gin.Context) {
	var (
		tierQ     = strings.TrimSpace(c.Query("tier"))
		newOnlyQ  = strings.TrimSpace(c.Query("is_new_client"))
		disabledQ = strings.TrimSpace(c.Query("disabled"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Client{})
	if tierQ != "" {
		q = q.Where("tier = ?", tierQ)
	}
	if newOnlyQ == "true" || newOnlyQ == "1" {
		q = q.Where("is_new_client = ?", true)
	}
	if disabledQ != "" {
		if disabledQ == "true" || disabledQ == "1" {
			q = q.Where("disabled = ?", true)
		} else if disabledQ == "false" || disabledQ == "0" {
			q = q.Where("disabled = ?", false)
		}
	}

	var rows []models.Client
	if errFind := q.Order("client_id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list clients failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, h.formatClient(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"clients": out})
}

// Get fetches a client by its client ID.
func (h *ClientHandler) Get(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("id"))
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var client models.Client
	if errFind := h.db.WithContext(c.Request.Context()).Where("client_id = ?", clientID).First(&client).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatClient(&client))
}

// updateClientRequest captures optional fields for client updates.
type updateClientRequest struct {
	Name                 *string   `json:"name"`
	Email                *string   `json:"email"`
	Password             *string   `json:"password"`
	Tier                 *string   `json:"tier"`
	EmployeeCount        *int      `json:"employee_count"`
	MonthlyPayrollCount  *int      `json:"monthly_payroll_count"`
	ContractLengthMonths *int      `json:"contract_length_months"`
	IsNewClient          *bool     `json:"is_new_client"`
	SubscribedServices   *[]string `json:"subscribed_services"`
	Disabled             *bool     `json:"disabled"`
}

// Update validates and applies client changes.
func (h *ClientHandler) Update(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("id"))
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateClientRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Client
	if errFind := h.db.WithContext(c.Request.Context()).Where("client_id = ?", clientID).First(&existing).Error; errFind != nil {
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
	if body.Email != nil {
		value := strings.TrimSpace(strings.ToLower(*body.Email))
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email cannot be empty"})
			return
		}
		updates["email"] = value
	}
	if body.Password != nil {
		value := strings.TrimSpace(*body.Password)
		if len(value) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}
		hash, errHash := security.HashPassword(value)
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
			return
		}
		updates["password"] = hash
	}
	if body.Tier != nil {
		if _, ok := validTiers[*body.Tier]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be standard, premium or enterprise"})
			return
		}
		updates["tier"] = *body.Tier
	}
	if body.EmployeeCount != nil {
		updates["employee_count"] = *body.EmployeeCount
	}
	if body.MonthlyPayrollCount != nil {
		updates["monthly_payroll_count"] = *body.MonthlyPayrollCount
	}
	if body.ContractLengthMonths != nil {
		updates["contract_length_months"] = *body.ContractLengthMonths
	}
	if body.IsNewClient != nil {
		updates["is_new_client"] = *body.IsNewClient
	}
	if body.SubscribedServices != nil {
		subscribedJSON, errEncode := json.Marshal(*body.SubscribedServices)
		if errEncode != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscribed_services"})
			return
		}
		updates["subscribed_services"] = datatypes.JSON(subscribedJSON)
	}
	if body.Disabled != nil {
		updates["disabled"] = *body.Disabled
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Client{}).
		Where("client_id = ?", clientID).
		Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a client by its client ID.
func (h *ClientHandler) Delete(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("id"))
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Where("client_id = ?", clientID).Delete(&models.Client{})
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

// formatClient converts a client row into a response payload.
func (h *ClientHandler) formatClient(client *models.Client) gin.H {
	var subscribed []string
	_ = json.Unmarshal(client.SubscribedServices, &subscribed)

	return gin.H{
		"client_id":              client.ClientID,
		"name":                   client.Name,
		"email":                  client.Email,
		"tier":                   client.Tier,
		"employee_count":         client.EmployeeCount,
		"monthly_payroll_count":  client.MonthlyPayrollCount,
		"contract_length_months": client.ContractLengthMonths,
		"is_new_client":          client.IsNewClient,
		"subscribed_services":    subscribed,
		"disabled":               client.Disabled,
		"created_at":             client.CreatedAt,
		"updated_at":             client.UpdatedAt,
	}
}
