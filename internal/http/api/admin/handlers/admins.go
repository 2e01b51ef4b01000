package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbutil "github.com/tigearis/payroll-billing/internal/db"
	permissions "github.com/tigearis/payroll-billing/internal/http/api/admin/permissions"
	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/security"
)

// AdminHandler manages operator account endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs an admin account handler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// adminIDParam parses the numeric :id path parameter.
func adminIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// encodePermissions normalizes, validates and encodes a permission list.
// ok=false means an error response has already been written.
func (h *AdminHandler) encodePermissions(c *gin.Context, keys []string) (datatypes.JSON, bool) {
	normalized := permissions.NormalizePermissions(keys)
	if errValidate := permissions.ValidatePermissions(normalized); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
		return nil, false
	}
	encoded, errMarshal := permissions.MarshalPermissions(normalized)
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode permissions failed"})
		return nil, false
	}
	return datatypes.JSON(encoded), true
}

// createAdminRequest captures the payload for creating an operator account.
type createAdminRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Permissions  []string `json:"permissions"`
	IsSuperAdmin bool     `json:"is_super_admin"`
}

// Create validates input and inserts an operator account.
func (h *AdminHandler) Create(c *gin.Context) {
	var body createAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	username := strings.TrimSpace(body.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}
	encodedPermissions, ok := h.encodePermissions(c, body.Permissions)
	if !ok {
		return
	}

	var exists models.Admin
	if errCheck := h.db.WithContext(c.Request.Context()).
		Where("username = ?", username).
		First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	now := time.Now().UTC()
	admin := models.Admin{
		Username:     username,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: body.IsSuperAdmin,
		Permissions:  encodedPermissions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&admin).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create admin failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatAdmin(&admin))
}

// List returns operator accounts filtered by query parameters.
func (h *AdminHandler) List(c *gin.Context) {
	var (
		usernameQ = strings.TrimSpace(c.Query("username"))
		activeQ   = strings.TrimSpace(c.Query("active"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Admin{})
	if usernameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+usernameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "username"), pattern)
	}
	if activeQ != "" {
		if activeQ == "true" || activeQ == "1" {
			q = q.Where("active = ?", true)
		} else if activeQ == "false" || activeQ == "0" {
			q = q.Where("active = ?", false)
		}
	}

	var rows []models.Admin
	if errFind := q.Order("username ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list admins failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, h.formatAdmin(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"admins": out})
}

// Get fetches a single operator account by ID.
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := adminIDParam(c)
	if !ok {
		return
	}
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatAdmin(&admin))
}

// updateAdminRequest captures optional fields for account updates.
type updateAdminRequest struct {
	Username     *string   `json:"username"`
	Permissions  *[]string `json:"permissions"`
	IsSuperAdmin *bool     `json:"is_super_admin"`
}

// Update validates and applies operator account changes.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := adminIDParam(c)
	if !ok {
		return
	}
	var body updateAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Username != nil {
		username := strings.TrimSpace(*body.Username)
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username cannot be empty"})
			return
		}
		updates["username"] = username
	}
	if body.Permissions != nil {
		encodedPermissions, okEncode := h.encodePermissions(c, *body.Permissions)
		if !okEncode {
			return
		}
		updates["permissions"] = encodedPermissions
	}
	if body.IsSuperAdmin != nil {
		updates["is_super_admin"] = *body.IsSuperAdmin
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes an operator account.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := adminIDParam(c)
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Admin{}, id)
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

// setAdminActiveRequest toggles whether an account may sign in.
type setAdminActiveRequest struct {
	Active *bool `json:"active"`
}

// SetActive activates or deactivates an operator account.
func (h *AdminHandler) SetActive(c *gin.Context) {
	id, ok := adminIDParam(c)
	if !ok {
		return
	}
	var body setAdminActiveRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil || body.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": *body.Active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// setAdminPasswordRequest carries the replacement password.
type setAdminPasswordRequest struct {
	Password string `json:"password"`
}

// SetPassword replaces another account's password. Self-service changes
// with current-password verification go through the /me/password route.
func (h *AdminHandler) SetPassword(c *gin.Context) {
	id, ok := adminIDParam(c)
	if !ok {
		return
	}
	var body setAdminPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": hash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// formatAdmin converts an account row into a response payload. The
// password hash never leaves the handler.
func (h *AdminHandler) formatAdmin(admin *models.Admin) gin.H {
	return gin.H{
		"id":             admin.ID,
		"username":       admin.Username,
		"active":         admin.Active,
		"is_super_admin": admin.IsSuperAdmin,
		"permissions":    permissions.ParsePermissions(admin.Permissions),
		"created_at":     admin.CreatedAt,
		"updated_at":     admin.UpdatedAt,
	}
}
