package models

import (
	"time"

	"gorm.io/datatypes"
)

// Client represents a payroll client with portal access. Tier, headcount and
// subscription fields feed the pricing context for self-serve quotes.
type Client struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ClientID string `gorm:"type:text;not null;uniqueIndex"` // Stable client identifier.
	Name     string `gorm:"type:text;not null"`             // Company name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Portal login email.
	Password string `gorm:"type:text;not null"`             // Hashed portal password.

	Tier                 string `gorm:"type:text;not null;default:'standard'"` // standard, premium or enterprise.
	EmployeeCount        *int   // Employee headcount, when known.
	MonthlyPayrollCount  *int   // Payroll runs per month, when known.
	ContractLengthMonths *int   // Contract commitment in months.
	IsNewClient          bool   `gorm:"not null;default:false"` // New-client promo eligibility.

	SubscribedServices datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Service IDs the client subscribes to.

	Disabled bool `gorm:"not null;default:false"` // Blocks portal sign-in when true.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
