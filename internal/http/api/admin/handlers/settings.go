package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/settings"
)

// SettingsHandler manages the DB-backed settings endpoints.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// knownSettingKeys lists keys the API accepts for updates.
var knownSettingKeys = map[string]struct{}{
	settings.SiteNameKey:                     {},
	settings.RulePollIntervalSecondsKey:      {},
	settings.QuoteCacheTTLSecondsKey:         {},
	settings.NewClientPromoFromKey:           {},
	settings.NewClientPromoUntilKey:          {},
	settings.DefaultBundleDiscountPercentKey: {},
}

// List returns every stored setting.
func (h *SettingsHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Order("key ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list settings failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"key":        row.Key,
			"value":      json.RawMessage(row.Value),
			"updated_at": row.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"settings": out})
}

// updateSettingsRequest is a map of setting keys to JSON values.
type updateSettingsRequest struct {
	Settings map[string]json.RawMessage `json:"settings"`
}

// Update upserts the supplied settings and refreshes the in-memory snapshot.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Settings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "settings are required"})
		return
	}
	for key := range body.Settings {
		if _, ok := knownSettingKeys[strings.TrimSpace(key)]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting key: " + key})
			return
		}
	}

	now := time.Now().UTC()
	if errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for key, value := range body.Settings {
			row := models.Setting{
				Key:       strings.TrimSpace(key),
				Value:     json.RawMessage(value),
				UpdatedAt: now,
			}
			if errUpsert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error; errUpsert != nil {
				return errUpsert
			}
		}
		return nil
	}); errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update settings failed"})
		return
	}

	if errRefresh := settings.RefreshDBConfigSnapshot(c.Request.Context(), h.db); errRefresh != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh settings failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
