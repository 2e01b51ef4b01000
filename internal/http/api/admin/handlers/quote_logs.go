package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
)

// QuoteLogHandler serves the quote audit trail.
type QuoteLogHandler struct {
	db *gorm.DB
}

// NewQuoteLogHandler constructs a quote log handler.
func NewQuoteLogHandler(db *gorm.DB) *QuoteLogHandler {
	return &QuoteLogHandler{db: db}
}

// quoteLogsListQuery defines filters for the quote log list view.
type quoteLogsListQuery struct {
	Page      int    `form:"page,default=1"`   // Page number.
	Limit     int    `form:"limit,default=20"` // Page size.
	ServiceID string `form:"service_id"`       // Service filter.
	ClientID  string `form:"client_id"`        // Client filter.
	Source    string `form:"source"`           // admin or portal.
	StartDate string `form:"start_date"`       // Inclusive start date.
	EndDate   string `form:"end_date"`         // Inclusive end date.
}

// List returns quote logs filtered and paginated, newest first.
func (h *QuoteLogHandler) List(c *gin.Context) {
	var q quoteLogsListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 200 {
		q.Limit = 20
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.QuoteLog{})
	if serviceID := strings.TrimSpace(q.ServiceID); serviceID != "" {
		query = query.Where("service_id = ?", serviceID)
	}
	if clientID := strings.TrimSpace(q.ClientID); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if source := strings.TrimSpace(q.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	if q.StartDate != "" {
		if startTime, errParse := time.Parse("2006-01-02", q.StartDate); errParse == nil {
			query = query.Where("requested_at >= ?", startTime)
		}
	}
	if q.EndDate != "" {
		if endTime, errParse := time.Parse("2006-01-02", q.EndDate); errParse == nil {
			query = query.Where("requested_at < ?", endTime.AddDate(0, 0, 1))
		}
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count quote logs failed"})
		return
	}

	offset := (q.Page - 1) * q.Limit
	var rows []models.QuoteLog
	if errFind := query.Order("requested_at DESC, id DESC").
		Offset(offset).Limit(q.Limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list quote logs failed"})
		return
	}

	logs := make([]gin.H, 0, len(rows))
	for i := range rows {
		logs = append(logs, h.formatQuoteLog(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"quote_logs": logs,
		"total":      total,
		"page":       q.Page,
		"limit":      q.Limit,
	})
}

// formatQuoteLog converts a quote log row into a response payload.
func (h *QuoteLogHandler) formatQuoteLog(row *models.QuoteLog) gin.H {
	var appliedRules []gin.H
	_ = json.Unmarshal(row.AppliedRules, &appliedRules)

	return gin.H{
		"id":                  row.ID,
		"service_id":          row.ServiceID,
		"client_id":           row.ClientID,
		"source":              row.Source,
		"quantity":            row.Quantity,
		"original_rate":       row.OriginalRate,
		"final_rate":          row.FinalRate,
		"total_amount":        row.TotalAmount,
		"discount_amount":     row.DiscountAmount,
		"discount_percentage": row.DiscountPercentage,
		"applied_rules":       appliedRules,
		"warning_count":       row.WarningCount,
		"requested_at":        row.RequestedAt,
	}
}
