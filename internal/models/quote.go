package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Status is the canonical quote lifecycle state. Stored values may arrive in
// any casing or under a legacy alias; always fold through NormalizeStatus
// before comparing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusViewed    Status = "viewed"
	StatusAccepted  Status = "accepted"
	StatusCancelled Status = "cancelled"
)

// NormalizeStatus folds a stored status string to its canonical form.
// Recognized aliases: "signed" for accepted, "canceled" for cancelled.
// Empty or unknown values normalize to draft.
func NormalizeStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sent":
		return StatusSent
	case "viewed":
		return StatusViewed
	case "accepted", "signed":
		return StatusAccepted
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusDraft
	}
}

// Deposit modes. Auto derives the deposit from the grand total; custom keeps
// whatever the user typed.
const (
	DepositAuto   = "auto"
	DepositCustom = "custom"
)

// Quote is a tenant-owned document. The row carries the fields lists and
// lookups need; the full editable snapshot lives in Data.
type Quote struct {
	ID            uint   `gorm:"primaryKey"`
	CompanyID     uint   `gorm:"not null;index"`
	Number        string `gorm:"size:20;not null;index"`
	CustomerID    uint   `gorm:"index"` // optional soft link to a customer row
	CustomerName  string
	CustomerEmail string `gorm:"index"`
	Status        string `gorm:"not null;default:'draft'"`
	TotalCents    int64  `gorm:"not null;default:0"`
	Currency      string `gorm:"size:3;not null;default:'USD'"`
	// VersionOf points at the lineage root: the original quote this one was
	// duplicated from, never an intermediate copy. Zero for originals.
	VersionOf   uint                          `gorm:"index"`
	PublicToken string                        `gorm:"size:36;uniqueIndex"`
	Data        datatypes.JSONType[QuoteData] `gorm:"type:json"`
	SentAt      *time.Time
	ViewedAt    *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QuoteData is the structured snapshot stored in the quote's data column.
// Company letterhead and tax settings are captured here at creation time so
// later settings changes never alter an issued quote.
type QuoteData struct {
	Letterhead      Letterhead `json:"letterhead"`
	QuoteDate       string     `json:"quote_date,omitempty"`
	ExpiryDate      string     `json:"expiry_date,omitempty"`
	PreparedBy      string     `json:"prepared_by,omitempty"`
	BillTo          BillTo     `json:"bill_to"`
	ProjectLocation string     `json:"project_location,omitempty"`
	Scope           string     `json:"scope,omitempty"`
	Terms           string     `json:"terms,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Items           []LineItem `json:"items"`
	TaxName         string     `json:"tax_name,omitempty"`
	TaxRate         float64    `json:"tax_rate"`
	FeesCents       int64      `json:"fees_cents"`
	DepositMode     string     `json:"deposit_mode,omitempty"`
	DepositCents    int64      `json:"deposit_cents"`
	SubtotalCents   int64      `json:"subtotal_cents"`
	TaxCents        int64      `json:"tax_cents"`
	TotalCents      int64      `json:"total_cents"`
	// Lineage stamps set when this quote was created as a new version.
	OriginQuoteID     uint   `json:"origin_quote_id,omitempty"`
	OriginQuoteNumber string `json:"origin_quote_number,omitempty"`
	// Acceptance is present only once the customer has signed. Duplicating a
	// quote copies the snapshot without this field, which is the entire
	// scrub step.
	Acceptance *Acceptance `json:"acceptance,omitempty"`
}

// LineItem has no identity beyond its position in Items. TotalCents is
// derived on every recomputation.
type LineItem struct {
	Description    string  `json:"description"`
	Qty            float64 `json:"qty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	Taxable        bool    `json:"taxable"`
	TotalCents     int64   `json:"total_cents"`
}

// Letterhead is the company identity frozen into a quote at creation.
type Letterhead struct {
	CompanyName  string `json:"company_name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	BrandColor   string `json:"brand_color,omitempty"`
	PaymentTerms string `json:"payment_terms,omitempty"`
}

// BillTo holds the customer-facing billing block.
type BillTo struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Acceptance records the customer's signature. Once AcceptedAt is set the
// block is immutable; repeat accept calls return it unchanged.
type Acceptance struct {
	SignerName       string    `json:"signer_name"`
	SignerEmail      string    `json:"signer_email,omitempty"`
	AcceptedAt       time.Time `json:"accepted_at"`
	SignatureDataURL string    `json:"signature_data_url,omitempty"`
	SignatureText    string    `json:"signature_text,omitempty"`
}
