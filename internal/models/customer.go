package models

import "time"

// Customer is a tenant-scoped contact record. Quotes link to customers
// softly (by id, stamped email, or name) so deleting a customer never
// touches issued quotes.
type Customer struct {
	ID           uint   `gorm:"primaryKey"`
	CompanyID    uint   `gorm:"not null;index"`
	FirstName    string `gorm:"index"`
	LastName     string `gorm:"index"`
	CompanyName  string
	Email        string `gorm:"index"`
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	Region       string
	PostalCode   string
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the personal name, falling back to the company name.
func (c Customer) DisplayName() string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	if name == "" {
		return c.CompanyName
	}
	return name
}
