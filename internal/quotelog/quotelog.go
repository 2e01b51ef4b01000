// Package quotelog persists quote calculations for reporting and audits.
package quotelog

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
)

// Quote sources.
const (
	SourceAdmin  = "admin"
	SourcePortal = "portal"
)

// Recorder writes quote log rows.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder { return &Recorder{db: db} }

// Record persists one computed quote. Failures are logged and swallowed so
// audit writes can never fail a quote response. The write runs on a detached
// context so request cancellation cannot drop the audit row.
func (r *Recorder) Record(serviceID, clientID, source string, result pricing.PricingResult) {
	if r == nil || r.db == nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	appliedRules, errEncode := json.Marshal(result.AppliedRules)
	if errEncode != nil {
		appliedRules = []byte("[]")
	}

	row := models.QuoteLog{
		ServiceID:          serviceID,
		ClientID:           clientID,
		Source:             source,
		Quantity:           result.Metadata.Context.Quantity,
		OriginalRate:       result.OriginalRate,
		FinalRate:          result.FinalRate,
		TotalAmount:        result.TotalAmount,
		DiscountAmount:     result.DiscountAmount,
		DiscountPercentage: result.DiscountPercentage,
		AppliedRules:       datatypes.JSON(appliedRules),
		WarningCount:       len(result.Metadata.Warnings),
		RequestedAt:        result.Metadata.CalculationDate,
	}
	if row.RequestedAt.IsZero() {
		row.RequestedAt = time.Now().UTC()
	}

	if errCreate := r.db.WithContext(dbCtx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).Warn("quote log: failed to persist quote")
	}
}

// RecordBundle persists one row per service in a bundle quote.
func (r *Recorder) RecordBundle(clientID, source string, bundle pricing.BundleResult) {
	if r == nil || r.db == nil {
		return
	}
	for _, svc := range bundle.Services {
		r.Record(svc.ServiceID, clientID, source, svc.Result)
	}
}
