package models

import "time"

// Service represents a sellable payroll service.
type Service struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ServiceID   string  `gorm:"type:text;not null;uniqueIndex"`         // Stable service identifier.
	Name        string  `gorm:"type:text;not null"`                     // Display name.
	Category    string  `gorm:"type:text;index"`                        // Service category.
	Description string  `gorm:"type:text"`                              // Optional description.
	DefaultRate float64 `gorm:"type:decimal(20,10);not null;default:0"` // Undiscounted unit price.
	BillingUnit string  `gorm:"type:text;not null;default:'payslip'"`   // Unit the rate applies to.

	IsActive bool `gorm:"not null;default:true"` // Whether the service is sellable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
