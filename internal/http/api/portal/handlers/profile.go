package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/security"
)

// ProfileHandler serves the authenticated client's own profile.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Get returns the authenticated client's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	client, ok := clientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, formatClientProfile(client))
}

// changePasswordRequest defines the request body for a password change.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword rotates the authenticated client's portal password.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	client, ok := clientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}

	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if !security.CheckPassword(client.Password, strings.TrimSpace(body.OldPassword)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "old password is incorrect"})
		return
	}

	newPassword := strings.TrimSpace(body.NewPassword)
	if len(newPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new password must be at least 8 characters"})
		return
	}

	hashed, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.Client{}).
		Where("id = ?", client.ID).
		Update("password", hashed).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// formatClientProfile shapes a client row for the portal, omitting internal
// fields like the password hash and the numeric primary key.
func formatClientProfile(client models.Client) gin.H {
	var subscribed []string
	if len(client.SubscribedServices) > 0 {
		_ = json.Unmarshal(client.SubscribedServices, &subscribed)
	}

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
		"created_at":             client.CreatedAt,
	}
}
