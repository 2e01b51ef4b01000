package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/quotecache"
	"github.com/tigearis/payroll-billing/internal/quotelog"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/settings"
	"github.com/tigearis/payroll-billing/internal/store"
)

// QuoteHandler serves self-service quote calculations. The pricing context
// comes from the client's stored profile, never from the request, so a
// client cannot claim a tier or headcount they do not have.
type QuoteHandler struct {
	db     *gorm.DB
	rules  *refresh.Manager
	cache  *quotecache.Cache
	quotes *quotelog.Recorder
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(db *gorm.DB, rules *refresh.Manager, cache *quotecache.Cache, quotes *quotelog.Recorder) *QuoteHandler {
	return &QuoteHandler{db: db, rules: rules, cache: cache, quotes: quotes}
}

// quoteRequest captures the payload for a portal quote.
type quoteRequest struct {
	ServiceID      string                 `json:"service_id"`
	Quantity       float64                `json:"quantity"`
	BillingDate    *time.Time             `json:"billing_date"`
	SeasonalPeriod pricing.SeasonalPeriod `json:"seasonal_period"`
}

// Calculate prices one service against the client's stored profile.
func (h *QuoteHandler) Calculate(c *gin.Context) {
	client, ok := clientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}

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

	pctx := contextFromClient(client)
	pctx.Quantity = body.Quantity
	pctx.BillingDate = body.BillingDate
	pctx.SeasonalPeriod = body.SeasonalPeriod

	snapshot := h.rules.Current()
	key := quotecache.Key(service, pctx, snapshot.Version)
	if cached, hit := h.cache.Get(c.Request.Context(), key); hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	result := snapshot.Engine.CalculatePrice(service, pctx, nil)
	_ = h.cache.Set(c.Request.Context(), key, result)
	h.quotes.Record(service.ID, client.ClientID, quotelog.SourcePortal, result)
	c.JSON(http.StatusOK, result)
}

// bundleItemRequest is one service line in a portal bundle quote.
type bundleItemRequest struct {
	ServiceID string  `json:"service_id"`
	Quantity  float64 `json:"quantity"`
}

// bundleQuoteRequest captures the payload for a portal bundle quote.
type bundleQuoteRequest struct {
	Items          []bundleItemRequest    `json:"items"`
	BillingDate    *time.Time             `json:"billing_date"`
	SeasonalPeriod pricing.SeasonalPeriod `json:"seasonal_period"`
}

// CalculateBundle prices several services together. The bundle discount is
// the operator-configured default, not a client-supplied value.
func (h *QuoteHandler) CalculateBundle(c *gin.Context) {
	client, ok := clientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
		return
	}

	var body bundleQuoteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items are required"})
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

	pctx := contextFromClient(client)
	pctx.BillingDate = body.BillingDate
	pctx.SeasonalPeriod = body.SeasonalPeriod

	discount := settings.Float64Value(settings.DefaultBundleDiscountPercentKey, 0)
	if discount < 0 || discount >= 100 {
		discount = 0
	}

	result := h.rules.Current().Engine.CalculateBundlePrice(items, pctx, discount)
	h.quotes.RecordBundle(client.ClientID, quotelog.SourcePortal, result)
	c.JSON(http.StatusOK, result)
}

// contextFromClient builds a pricing context from a stored client profile.
func contextFromClient(client models.Client) pricing.PricingContext {
	var subscribed []string
	if len(client.SubscribedServices) > 0 {
		_ = json.Unmarshal(client.SubscribedServices, &subscribed)
	}

	isNew := client.IsNewClient
	return pricing.PricingContext{
		ClientTier:          pricing.ClientTier(client.Tier),
		EmployeeCount:       client.EmployeeCount,
		MonthlyPayrollCount: client.MonthlyPayrollCount,
		ContractLength:      client.ContractLengthMonths,
		ExistingServices:    subscribed,
		IsNewClient:         &isNew,
	}
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
