package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuoteLog records one computed price quote for reporting and audits.
type QuoteLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ServiceID string `gorm:"type:text;not null;index"` // Quoted service.
	ClientID  string `gorm:"type:text;index"`          // Requesting client, when known.
	Source    string `gorm:"type:text;not null;index"` // "admin" or "portal".

	Quantity           float64 `gorm:"type:decimal(20,10);not null"` // Quoted units.
	OriginalRate       float64 `gorm:"type:decimal(20,10);not null"` // Service default rate.
	FinalRate          float64 `gorm:"type:decimal(20,10);not null"` // Rate after all rules.
	TotalAmount        float64 `gorm:"type:decimal(20,10);not null"` // FinalRate times quantity.
	DiscountAmount     float64 `gorm:"type:decimal(20,10);not null"` // Absolute discount.
	DiscountPercentage float64 `gorm:"type:decimal(20,10);not null"` // Relative discount.

	AppliedRules datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Rules that fired.
	WarningCount int            `gorm:"not null;default:0"`               // Caps and floors hit.

	RequestedAt time.Time `gorm:"not null;index"`          // When the quote was requested.
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"` // Row creation timestamp.
}
