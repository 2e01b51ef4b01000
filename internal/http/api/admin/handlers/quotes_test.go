package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/quotelog"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/store"
)

func setupQuoteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:quotes_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Service{}, &models.PricingRule{}, &models.QuoteLog{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func seedQuoteFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	service := models.Service{
		ServiceID:   "payroll-processing",
		Name:        "Payroll Processing",
		DefaultRate: 10,
		BillingUnit: "payslip",
		IsActive:    true,
	}
	if errCreate := db.Create(&service).Error; errCreate != nil {
		t.Fatalf("create service: %v", errCreate)
	}

	minQty := 100.0
	row, errConv := store.FromEngineRule(pricing.PricingRule{
		ID:        "volume-100",
		ServiceID: pricing.GlobalServiceID,
		RuleName:  "Volume 100+",
		RuleType:  pricing.RuleTypeVolumeDiscount,
		Priority:  10,
		IsActive:  true,
		Conditions: pricing.RuleConditions{
			MinQuantity: &minQty,
		},
		Pricing: pricing.RulePricing{
			AdjustmentType:  pricing.AdjustPercentageDiscount,
			Value:           10,
		},
	})
	if errConv != nil {
		t.Fatalf("convert rule: %v", errConv)
	}
	if errCreate := db.Create(&row).Error; errCreate != nil {
		t.Fatalf("create rule: %v", errCreate)
	}
}

func newQuoteRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := refresh.NewManager(db)
	if errReload := manager.Reload(context.Background()); errReload != nil {
		t.Fatalf("reload rules: %v", errReload)
	}
	handler := NewQuoteHandler(db, manager, quotelog.NewRecorder(db))
	router := gin.New()
	router.POST("/v0/admin/quotes", handler.Calculate)
	router.POST("/v0/admin/quotes/bundle", handler.CalculateBundle)
	return router
}

func TestQuoteCalculateAppliesVolumeDiscount(t *testing.T) {
	db := setupQuoteDB(t)
	seedQuoteFixtures(t, db)
	router := newQuoteRouter(t, db)

	payload := `{"service_id":"payroll-processing","quantity":200,"client_id":"acme"}`
	req := httptest.NewRequest(http.MethodPost, "/v0/admin/quotes", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result pricing.PricingResult
	if errDecode := json.Unmarshal(w.Body.Bytes(), &result); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if result.OriginalRate != 10 {
		t.Fatalf("expected original_rate=10, got %v", result.OriginalRate)
	}
	if result.FinalRate != 9 {
		t.Fatalf("expected final_rate=9 after 10%% discount, got %v", result.FinalRate)
	}
	if result.TotalAmount != 1800 {
		t.Fatalf("expected total_amount=1800, got %v", result.TotalAmount)
	}
	if len(result.AppliedRules) != 1 || result.AppliedRules[0].RuleID != "volume-100" {
		t.Fatalf("expected one applied rule volume-100, got %+v", result.AppliedRules)
	}

	var logs []models.QuoteLog
	if errFind := db.Find(&logs).Error; errFind != nil {
		t.Fatalf("find quote logs: %v", errFind)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 quote log row, got %d", len(logs))
	}
	if logs[0].ClientID != "acme" || logs[0].Source != quotelog.SourceAdmin {
		t.Fatalf("unexpected quote log row: %+v", logs[0])
	}
}

func TestQuoteCalculateBelowThresholdLeavesRateAlone(t *testing.T) {
	db := setupQuoteDB(t)
	seedQuoteFixtures(t, db)
	router := newQuoteRouter(t, db)

	payload := `{"service_id":"payroll-processing","quantity":50}`
	req := httptest.NewRequest(http.MethodPost, "/v0/admin/quotes", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var result pricing.PricingResult
	if errDecode := json.Unmarshal(w.Body.Bytes(), &result); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if result.FinalRate != 10 || len(result.AppliedRules) != 0 {
		t.Fatalf("expected undiscounted rate, got final_rate=%v applied=%d", result.FinalRate, len(result.AppliedRules))
	}
}

func TestQuoteCalculateRejectsBadInput(t *testing.T) {
	db := setupQuoteDB(t)
	seedQuoteFixtures(t, db)
	router := newQuoteRouter(t, db)

	cases := []struct {
		name    string
		payload string
		status  int
	}{
		{name: "zero quantity", payload: `{"service_id":"payroll-processing","quantity":0}`, status: http.StatusBadRequest},
		{name: "missing service", payload: `{"quantity":10}`, status: http.StatusBadRequest},
		{name: "unknown service", payload: `{"service_id":"nope","quantity":10}`, status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v0/admin/quotes", bytes.NewBufferString(tc.payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestQuoteBundleAppliesBundleDiscount(t *testing.T) {
	db := setupQuoteDB(t)
	seedQuoteFixtures(t, db)
	router := newQuoteRouter(t, db)

	payload := `{"items":[{"service_id":"payroll-processing","quantity":50}],"bundle_discount":20}`
	req := httptest.NewRequest(http.MethodPost, "/v0/admin/quotes/bundle", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result pricing.BundleResult
	if errDecode := json.Unmarshal(w.Body.Bytes(), &result); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if result.TotalOriginal != 500 {
		t.Fatalf("expected total_original=500, got %v", result.TotalOriginal)
	}
	if result.TotalFinal != 400 {
		t.Fatalf("expected total_final=400 after 20%% bundle discount, got %v", result.TotalFinal)
	}
}
