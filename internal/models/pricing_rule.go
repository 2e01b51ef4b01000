package models

import (
	"time"

	"gorm.io/datatypes"
)

// GlobalServiceID is the sentinel service scope for rules that apply to
// every service.
const GlobalServiceID = "all"

// PricingRule persists one declarative pricing policy. Conditions and
// Pricing are stored as JSON so new predicate dimensions do not require
// schema changes.
type PricingRule struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RuleID    string `gorm:"type:text;not null;uniqueIndex"` // Stable rule identifier.
	ServiceID string `gorm:"type:text;not null;index"`       // Service scope, or "all".
	RuleName  string `gorm:"type:text;not null"`             // Display name.
	RuleType  string `gorm:"type:text;not null;index"`       // Rule category.
	Priority  int    `gorm:"not null;default:0"`             // Higher evaluates first.

	Conditions datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Applicability predicates.
	Pricing    datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Rate effect payload.

	EffectiveFrom  *time.Time // Validity window start, if bounded.
	EffectiveUntil *time.Time // Validity window end, if bounded.

	IsActive bool `gorm:"not null;default:true"` // Hard on/off switch.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
