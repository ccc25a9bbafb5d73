package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

// Sentinel errors mapped to HTTP statuses by the handlers. Tenant-scoped
// misses fail closed as ErrNotFound: a quote owned by another company looks
// exactly like one that does not exist.
var (
	ErrNotFound       = errors.New("quote_not_found")
	ErrQuoteAccepted  = errors.New("quote_already_accepted")
	ErrQuoteCancelled = errors.New("quote_cancelled")
)

// QuoteService owns the quote lifecycle: create, edit, cancel, version, and
// the public view/accept channel.
type QuoteService struct {
	DB *gorm.DB
}

func NewQuoteService(db *gorm.DB) *QuoteService { return &QuoteService{DB: db} }

const quoteDateLayout = "2006-01-02"

// CreateQuoteInput names the customer a new draft is addressed to. All three
// fields are optional; CustomerID additionally seeds the bill-to block from
// the customer record.
type CreateQuoteInput struct {
	CustomerID    uint
	CustomerName  string
	CustomerEmail string
}

// Create opens a new draft with the company letterhead and tax settings
// snapshotted in. Later company edits never touch this quote.
func (s *QuoteService) Create(ctx context.Context, tc tenant.Context, in CreateQuoteInput) (*models.Quote, error) {
	db := s.DB.WithContext(ctx)

	var company models.Company
	if err := db.First(&company, tc.CompanyID).Error; err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}

	now := time.Now()
	data := models.QuoteData{
		Letterhead: models.Letterhead{
			CompanyName:  company.Name,
			Email:        company.Email,
			Phone:        company.Phone,
			Address:      companyAddress(company),
			LogoURL:      company.LogoURL,
			BrandColor:   company.BrandColor,
			PaymentTerms: company.PaymentTerms,
		},
		QuoteDate:   now.Format(quoteDateLayout),
		ExpiryDate:  now.AddDate(0, 0, 30).Format(quoteDateLayout),
		TaxName:     company.TaxName,
		TaxRate:     company.TaxRate,
		DepositMode: models.DepositAuto,
		Items:       []models.LineItem{},
		BillTo:      models.BillTo{Name: in.CustomerName, Email: in.CustomerEmail},
	}

	if in.CustomerID != 0 {
		var cust models.Customer
		err := db.Where("company_id = ?", tc.CompanyID).First(&cust, in.CustomerID).Error
		if err == nil {
			if in.CustomerName == "" {
				in.CustomerName = cust.DisplayName()
			}
			if in.CustomerEmail == "" {
				in.CustomerEmail = cust.Email
			}
			data.BillTo = models.BillTo{
				Name:    cust.DisplayName(),
				Company: cust.CompanyName,
				Email:   cust.Email,
				Phone:   cust.Phone,
				Address: customerAddress(cust),
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	totals := ComputeTotals(&data)

	q := models.Quote{
		CompanyID:     tc.CompanyID,
		Number:        s.nextNumber(db, tc.CompanyID),
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		Status:        string(models.StatusDraft),
		TotalCents:    totals.TotalCents,
		Currency:      company.Currency,
		PublicToken:   uuid.NewString(),
		Data:          datatypes.NewJSONType(data),
	}
	if err := db.Create(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// nextNumber issues the tenant's next human-readable sequence number.
// Concurrent creates may collide on display numbers; quote identity is the
// row id, so that is cosmetic.
func (s *QuoteService) nextNumber(db *gorm.DB, companyID uint) string {
	var count int64
	db.Model(&models.Quote{}).Where("company_id = ?", companyID).Count(&count)
	return fmt.Sprintf("Q-%05d", count+1)
}

// Get loads a quote scoped to the caller's tenant.
func (s *QuoteService) Get(ctx context.Context, tc tenant.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.DB.WithContext(ctx).Where("company_id = ?", tc.CompanyID).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// List returns the tenant's quotes newest-first with an optional search over
// number, customer name, and status.
func (s *QuoteService) List(ctx context.Context, tc tenant.Context, query string, limit, offset int) ([]models.Quote, int64, error) {
	dbq := s.DB.WithContext(ctx).Where("company_id = ?", tc.CompanyID)
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(number) LIKE ? OR lower(customer_name) LIKE ? OR lower(status) LIKE ?", like, like, like)
	}
	var total int64
	dbq.Model(&models.Quote{}).Count(&total)
	var quotes []models.Quote
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// UpdateQuoteInput is the editor save payload. Nil fields are left alone.
type UpdateQuoteInput struct {
	CustomerID    *uint
	CustomerName  *string
	CustomerEmail *string
	Data          *models.QuoteData
}

// Update applies an editor save. Totals are always recomputed and persisted
// so the row's total_cents equals the snapshot's computed grand total at
// every save. Cancelled quotes reject edits; an existing acceptance block is
// carried over untouched regardless of what the client sent.
func (s *QuoteService) Update(ctx context.Context, tc tenant.Context, id uint, in UpdateQuoteInput) (*models.Quote, Totals, error) {
	q, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, Totals{}, err
	}
	if models.NormalizeStatus(q.Status) == models.StatusCancelled {
		return nil, Totals{}, ErrQuoteCancelled
	}

	data := q.Data.Data()
	if in.Data != nil {
		accepted := data.Acceptance
		data = *in.Data
		data.Acceptance = accepted
	}
	totals := ComputeTotals(&data)

	if in.CustomerID != nil {
		q.CustomerID = *in.CustomerID
	}
	if in.CustomerName != nil {
		q.CustomerName = *in.CustomerName
	}
	if in.CustomerEmail != nil {
		q.CustomerEmail = *in.CustomerEmail
	}
	q.Data = datatypes.NewJSONType(data)
	q.TotalCents = totals.TotalCents

	if err := s.DB.WithContext(ctx).Save(q).Error; err != nil {
		return nil, Totals{}, err
	}
	return q, totals, nil
}

// Cancel marks the quote cancelled and stamps the time. Accepted quotes
// cannot be cancelled; cancellation itself is permanent and is not a delete.
func (s *QuoteService) Cancel(ctx context.Context, tc tenant.Context, id uint) (*models.Quote, error) {
	q, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	switch models.NormalizeStatus(q.Status) {
	case models.StatusAccepted:
		return nil, ErrQuoteAccepted
	case models.StatusCancelled:
		return nil, ErrQuoteCancelled
	}
	now := time.Now()
	q.Status = string(models.StatusCancelled)
	q.CancelledAt = &now
	if err := s.DB.WithContext(ctx).Save(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// Duplicate creates a new draft version of the source quote. The snapshot is
// deep-copied with the acceptance block omitted and a fresh public token
// issued; the lineage pointer is flattened so duplicating a duplicate still
// points at the original root.
func (s *QuoteService) Duplicate(ctx context.Context, tc tenant.Context, id uint) (*models.Quote, error) {
	src, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}

	root := src.VersionOf
	if root == 0 {
		root = src.ID
	}

	data := src.Data.Data() // value copy of the snapshot
	data.Items = append([]models.LineItem(nil), data.Items...)
	data.Acceptance = nil
	data.OriginQuoteID = src.ID
	data.OriginQuoteNumber = src.Number
	now := time.Now()
	data.QuoteDate = now.Format(quoteDateLayout)
	data.ExpiryDate = now.AddDate(0, 0, 30).Format(quoteDateLayout)
	totals := ComputeTotals(&data)

	db := s.DB.WithContext(ctx)
	dup := models.Quote{
		CompanyID:     src.CompanyID,
		Number:        s.nextNumber(db, src.CompanyID),
		CustomerID:    src.CustomerID,
		CustomerName:  src.CustomerName,
		CustomerEmail: src.CustomerEmail,
		Status:        string(models.StatusDraft),
		TotalCents:    totals.TotalCents,
		Currency:      src.Currency,
		VersionOf:     root,
		PublicToken:   uuid.NewString(),
		Data:          datatypes.NewJSONType(data),
	}
	if err := db.Create(&dup).Error; err != nil {
		return nil, err
	}
	return &dup, nil
}

// MarkSent records that the quote link went out. Draft moves to Sent; a
// quote already sent or viewed keeps its further-along status so a resend
// never walks the lifecycle backwards.
func (s *QuoteService) MarkSent(ctx context.Context, tc tenant.Context, id uint) (*models.Quote, error) {
	q, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	switch models.NormalizeStatus(q.Status) {
	case models.StatusCancelled:
		return nil, ErrQuoteCancelled
	case models.StatusAccepted:
		return nil, ErrQuoteAccepted
	case models.StatusDraft:
		q.Status = string(models.StatusSent)
	}
	if q.SentAt == nil {
		now := time.Now()
		q.SentAt = &now
	}
	if err := s.DB.WithContext(ctx).Save(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// GetByToken loads a quote by its public share token for the unauthenticated
// customer channel.
func (s *QuoteService) GetByToken(ctx context.Context, token string) (*models.Quote, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var q models.Quote
	err := s.DB.WithContext(ctx).Where("public_token = ?", token).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// MarkViewed flips Sent to Viewed the first time the customer opens the
// public link. Any other state is left alone.
func (s *QuoteService) MarkViewed(ctx context.Context, q *models.Quote) error {
	if models.NormalizeStatus(q.Status) != models.StatusSent {
		return nil
	}
	now := time.Now()
	q.Status = string(models.StatusViewed)
	q.ViewedAt = &now
	return s.DB.WithContext(ctx).Save(q).Error
}

// AcceptInput carries the customer's signature: either a drawn signature
// data URL or a typed name/email pair.
type AcceptInput struct {
	SignerName       string
	SignerEmail      string
	SignatureDataURL string
	SignatureText    string
}

// Accept records the customer's signature via the public channel. The call
// is idempotent: once acceptance is recorded, further calls return the
// original block (and alreadyAccepted=true) without overwriting anything.
func (s *QuoteService) Accept(ctx context.Context, token string, in AcceptInput) (*models.Quote, *models.Acceptance, bool, error) {
	q, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, false, err
	}
	data := q.Data.Data()
	if data.Acceptance != nil {
		return q, data.Acceptance, true, nil
	}
	if models.NormalizeStatus(q.Status) == models.StatusCancelled {
		return nil, nil, false, ErrQuoteCancelled
	}

	acc := &models.Acceptance{
		SignerName:       in.SignerName,
		SignerEmail:      in.SignerEmail,
		AcceptedAt:       time.Now(),
		SignatureDataURL: in.SignatureDataURL,
		SignatureText:    in.SignatureText,
	}
	data.Acceptance = acc
	q.Status = string(models.StatusAccepted)
	q.Data = datatypes.NewJSONType(data)
	if err := s.DB.WithContext(ctx).Save(q).Error; err != nil {
		return nil, nil, false, err
	}
	return q, acc, false, nil
}

func companyAddress(c models.Company) string {
	return joinAddress(c.AddressLine1, c.AddressLine2, c.City, c.Region, c.PostalCode, c.Country)
}

func customerAddress(c models.Customer) string {
	return joinAddress(c.AddressLine1, c.AddressLine2, c.City, c.Region, c.PostalCode, c.Country)
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, ", ")
}
