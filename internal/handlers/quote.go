package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/monitoring"
	"github.com/quotedesk/quotedesk/internal/services"
	"github.com/quotedesk/quotedesk/internal/tenant"
	"github.com/quotedesk/quotedesk/internal/validation"
)

// QuoteHandler exposes the staff-facing quote CRUD and lifecycle endpoints.
type QuoteHandler struct {
	DB       *gorm.DB
	Svc      *services.QuoteService
	Resolver *tenant.Resolver
}

func NewQuoteHandler(db *gorm.DB, svc *services.QuoteService, res *tenant.Resolver) *QuoteHandler {
	return &QuoteHandler{DB: db, Svc: svc, Resolver: res}
}

// List: GET /quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	quotes, total, err := h.Svc.List(r.Context(), tc, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var req struct {
		CustomerID    uint   `json:"customer_id"`
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Email("customer_email", req.CustomerEmail, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	q, err := h.Svc.Create(r.Context(), tc, services.CreateQuoteInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	monitoring.QuotesCreated.Inc()
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":           q.ID,
		"number":       q.Number,
		"status":       q.Status,
		"public_token": q.PublicToken,
		"total_cents":  q.TotalCents,
		"currency":     q.Currency,
	})
}

// Get: GET /quotes/get?id=
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	id := idParam(r, "id")
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	q, err := h.Svc.Get(r.Context(), tc, id)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotePayload(q))
}

// Update: POST /quotes/update
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var req struct {
		ID            uint              `json:"id"`
		CustomerID    *uint             `json:"customer_id"`
		CustomerName  *string           `json:"customer_name"`
		CustomerEmail *string           `json:"customer_email"`
		Data          *models.QuoteData `json:"data"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	if req.Data != nil && req.Data.DepositMode != "" && req.Data.DepositMode != models.DepositAuto && req.Data.DepositMode != models.DepositCustom {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"deposit_mode": "invalid_value"})
		return
	}
	q, totals, err := h.Svc.Update(r.Context(), tc, req.ID, services.UpdateQuoteInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Data:          req.Data,
	})
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "id": q.ID, "status": q.Status, "totals": totals})
}

// Cancel: POST /quotes/cancel
func (h *QuoteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	id := h.idFromBodyOrQuery(r)
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	q, err := h.Svc.Cancel(r.Context(), tc, id)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "status": q.Status, "cancelled_at": q.CancelledAt})
}

// Duplicate: POST /quotes/duplicate – the "new version" operation.
func (h *QuoteHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	id := h.idFromBodyOrQuery(r)
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	dup, err := h.Svc.Duplicate(r.Context(), tc, id)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":         dup.ID,
		"number":     dup.Number,
		"status":     dup.Status,
		"version_of": dup.VersionOf,
	})
}

// idFromBodyOrQuery accepts {"id": n} JSON or ?id= for the small mutation
// endpoints.
func (h *QuoteHandler) idFromBodyOrQuery(r *http.Request) uint {
	var req struct {
		ID      uint `json:"id"`
		QuoteID uint `json:"quote_id"`
	}
	if err := httpx.Decode(r, &req); err == nil {
		if req.ID != 0 {
			return req.ID
		}
		if req.QuoteID != 0 {
			return req.QuoteID
		}
	}
	return idParam(r, "id")
}

func quotePayload(q *models.Quote) map[string]any {
	return map[string]any{
		"id":             q.ID,
		"number":         q.Number,
		"customer_id":    q.CustomerID,
		"customer_name":  q.CustomerName,
		"customer_email": q.CustomerEmail,
		"status":         q.Status,
		"total_cents":    q.TotalCents,
		"currency":       q.Currency,
		"version_of":     q.VersionOf,
		"public_token":   q.PublicToken,
		"data":           q.Data.Data(),
		"sent_at":        q.SentAt,
		"viewed_at":      q.ViewedAt,
		"cancelled_at":   q.CancelledAt,
		"created_at":     q.CreatedAt,
	}
}
