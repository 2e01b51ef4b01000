package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/quotelog"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/store"
)

// QuoteHandler serves admin quote calculations.
type QuoteHandler struct {
	db     *gorm.DB
	rules  *refresh.Manager
	quotes *quotelog.Recorder
}

// NewQuoteHandler constructs a quote handler.
func NewQuoteHandler(db *gorm.DB, rules *refresh.Manager, quotes *quotelog.Recorder) *QuoteHandler {
	return &QuoteHandler{db: db, rules: rules, quotes: quotes}
}

// quoteRequest captures the payload for a single-service quote.
type quoteRequest struct {
	ServiceID   string                 `json:"service_id"`
	Quantity    float64                `json:"quantity"`
	Context     pricing.PricingContext `json:"context"`
	CustomRules []pricing.PricingRule  `json:"custom_rules"`
	ClientID    string                 `json:"client_id"`
}

// Calculate prices one service for an arbitrary pricing context. Custom
// rules participate in this calculation only and are never persisted.
func (h *QuoteHandler) Calculate(c *gin.Context) {
	var body quoteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be positive"})
		return
	}

	service, ok := h.lookupService(c, body.ServiceID)
	if !ok {
		return
	}

	pctx := body.Context
	pctx.Quantity = body.Quantity

	result := h.rules.Current().Engine.CalculatePrice(service, pctx, body.CustomRules)
	h.quotes.Record(service.ID, strings.TrimSpace(body.ClientID), quotelog.SourceAdmin, result)
	c.JSON(http.StatusOK, result)
}

// bundleItemRequest is one service line in a bundle quote.
type bundleItemRequest struct {
	ServiceID string  `json:"service_id"`
	Quantity  float64 `json:"quantity"`
}

// bundleQuoteRequest captures the payload for a bundle quote.
type bundleQuoteRequest struct {
	Items          []bundleItemRequest    `json:"items"`
	Context        pricing.PricingContext `json:"context"`
	BundleDiscount float64                `json:"bundle_discount"`
	ClientID       string                 `json:"client_id"`
}

// CalculateBundle prices several services together with a flat bundle
// discount applied across the aggregate.
func (h *QuoteHandler) CalculateBundle(c *gin.Context) {
	var body bundleQuoteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items are required"})
		return
	}
	if body.BundleDiscount < 0 || body.BundleDiscount >= 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bundle_discount must be in [0, 100)"})
		return
	}

	items := make([]pricing.BundleItem, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be positive"})
			return
		}
		service, ok := h.lookupService(c, item.ServiceID)
		if !ok {
			return
		}
		items = append(items, pricing.BundleItem{Service: service, Quantity: item.Quantity})
	}

	result := h.rules.Current().Engine.CalculateBundlePrice(items, body.Context, body.BundleDiscount)
	h.quotes.RecordBundle(strings.TrimSpace(body.ClientID), quotelog.SourceAdmin, result)
	c.JSON(http.StatusOK, result)
}

// Recommendations returns pricing recommendations for a client. The
// analysis pipeline is not built yet, so the shape is stable but empty.
func (h *QuoteHandler) Recommendations(c *gin.Context) {
	clientID := strings.TrimSpace(c.Query("client_id"))
	serviceIDs := c.QueryArray("service_id")

	recs := h.rules.Current().Engine.PricingRecommendations(clientID, serviceIDs, pricing.PricingContext{})
	c.JSON(http.StatusOK, recs)
}

// lookupService loads an active service and converts it for the engine.
// Writes the error response itself when the lookup fails.
func (h *QuoteHandler) lookupService(c *gin.Context, serviceID string) (pricing.Service, bool) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service_id is required"})
		return pricing.Service{}, false
	}

	var row models.Service
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("service_id = ? AND is_active = ?", serviceID, true).
		First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return pricing.Service{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return pricing.Service{}, false
	}
	return store.ToEngineService(&row), true
}
