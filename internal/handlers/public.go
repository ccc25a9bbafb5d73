package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/services"
)

// PublicQuoteHandler serves GET /public-quote, the unauthenticated customer
// view. The payload is sanitized (no row ids, no tenant internals) and the
// snapshot letterhead is merged with the company's current display fields.
type PublicQuoteHandler struct {
	DB    *gorm.DB
	Svc   *services.QuoteService
	Cache *cache.Cache
}

func NewPublicQuoteHandler(db *gorm.DB, svc *services.QuoteService, c *cache.Cache) *PublicQuoteHandler {
	return &PublicQuoteHandler{DB: db, Svc: svc, Cache: c}
}

const publicQuoteCacheTTL = 60 * time.Second

func (h *PublicQuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("id")
	if token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}

	if cached, ok := h.Cache.Get(r.Context(), publicQuoteCacheKey(token)); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(cached))
		return
	}

	q, err := h.Svc.GetByToken(r.Context(), token)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	// First open of a sent quote counts as the customer viewing it.
	if err := h.Svc.MarkViewed(r.Context(), q); err != nil {
		writeQuoteError(w, err)
		return
	}

	payload := h.publicPayload(r, q)
	if body, err := json.Marshal(payload); err == nil {
		h.Cache.Set(r.Context(), publicQuoteCacheKey(token), string(body), publicQuoteCacheTTL)
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *PublicQuoteHandler) publicPayload(r *http.Request, q *models.Quote) map[string]any {
	data := q.Data.Data()

	// Merge live company display defaults into the snapshot letterhead so a
	// quote issued before the tenant uploaded a logo or set a brand color
	// still renders with them.
	var company models.Company
	if err := h.DB.WithContext(r.Context()).First(&company, q.CompanyID).Error; err == nil {
		if data.Letterhead.CompanyName == "" {
			data.Letterhead.CompanyName = company.Name
		}
		if data.Letterhead.LogoURL == "" {
			data.Letterhead.LogoURL = company.LogoURL
		}
		if data.Letterhead.BrandColor == "" {
			data.Letterhead.BrandColor = company.BrandColor
		}
		if data.Letterhead.Phone == "" {
			data.Letterhead.Phone = company.Phone
		}
		if data.Letterhead.Email == "" {
			data.Letterhead.Email = company.Email
		}
	}

	payload := map[string]any{
		"number":           q.Number,
		"status":           string(models.NormalizeStatus(q.Status)),
		"customer_name":    q.CustomerName,
		"currency":         q.Currency,
		"total_cents":      q.TotalCents,
		"letterhead":       data.Letterhead,
		"quote_date":       data.QuoteDate,
		"expiry_date":      data.ExpiryDate,
		"prepared_by":      data.PreparedBy,
		"bill_to":          data.BillTo,
		"project_location": data.ProjectLocation,
		"scope":            data.Scope,
		"terms":            data.Terms,
		"notes":            data.Notes,
		"items":            data.Items,
		"tax_name":         data.TaxName,
		"tax_rate":         data.TaxRate,
		"fees_cents":       data.FeesCents,
		"deposit_mode":     data.DepositMode,
		"deposit_cents":    data.DepositCents,
		"subtotal_cents":   data.SubtotalCents,
		"tax_cents":        data.TaxCents,
	}
	if data.Acceptance != nil {
		payload["acceptance"] = map[string]any{
			"signer_name": data.Acceptance.SignerName,
			"accepted_at": data.Acceptance.AcceptedAt,
		}
	}
	return payload
}
