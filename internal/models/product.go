package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a reusable catalog entry. Quotes copy price and description
// into their own snapshot at edit time, so later product edits never alter
// quotes already created from the item.
type Product struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyID   uint   `gorm:"not null;index"`
	Name        string `gorm:"not null;index"`
	Description string
	UnitType    string `gorm:"default:'each'"` // each, hour, sqft, ...
	PriceCents  int64  `gorm:"not null;default:0"`
	Currency    string `gorm:"size:3;not null;default:'USD'"`
	// ShowBreakdown controls whether rendered quotes expose unit price and
	// quantity or collapse the line to a single total.
	ShowBreakdown bool           `gorm:"default:true"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
