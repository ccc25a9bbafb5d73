package models

import "time"

// Company is the tenant root: one row per organization. All business data
// hangs off CompanyID.
type Company struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null;index"`
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	Region       string
	PostalCode   string
	Country      string
	Currency     string `gorm:"size:3;not null;default:'USD'"`
	BrandColor   string `gorm:"size:9"` // hex, e.g. #1a73e8
	// LogoPath is a bucket-relative path ({id}/logo.{ext}); LogoURL wins when
	// the tenant pasted an external URL instead of uploading.
	LogoPath     string
	LogoURL      string
	PaymentTerms string
	TaxName      string  `gorm:"default:'Tax'"`
	TaxRate      float64 // percent, e.g. 13 for 13%
	BillingEmail string
	Plan         string `gorm:"default:'free'"`
	CreatedBy    uint   `gorm:"index"` // user who bootstrapped the company
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
