package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/mail"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/monitoring"
	"github.com/quotedesk/quotedesk/internal/services"
)

// Drawn signatures must be images and stay under 1 MiB of encoded payload.
const maxSignatureBytes = 1 << 20

// AcceptHandler implements POST /accept-quote, the public signing endpoint.
type AcceptHandler struct {
	DB    *gorm.DB
	Svc   *services.QuoteService
	Mail  *mail.Client
	Cache *cache.Cache
	Cfg   config.Config
}

func NewAcceptHandler(db *gorm.DB, svc *services.QuoteService, m *mail.Client, c *cache.Cache, cfg config.Config) *AcceptHandler {
	return &AcceptHandler{DB: db, Svc: svc, Mail: m, Cache: c, Cfg: cfg}
}

func (h *AcceptHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuoteID          string `json:"quote_id"`
		Name             string `json:"name"`
		Email            string `json:"email"`
		SignatureDataURL string `json:"signature_data_url"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.QuoteID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"quote_id": "required"})
		return
	}
	if req.SignatureDataURL == "" && req.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"signature": "required"})
		return
	}
	if req.SignatureDataURL != "" {
		if !strings.HasPrefix(req.SignatureDataURL, "data:image/") {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"signature_data_url": "not_an_image"})
			return
		}
		if len(req.SignatureDataURL) > maxSignatureBytes {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"signature_data_url": "too_large"})
			return
		}
	}

	q, acc, already, err := h.Svc.Accept(r.Context(), req.QuoteID, services.AcceptInput{
		SignerName:       req.Name,
		SignerEmail:      req.Email,
		SignatureDataURL: req.SignatureDataURL,
		SignatureText:    req.Name,
	})
	if err != nil {
		if errors.Is(err, services.ErrQuoteCancelled) {
			// The public page treats a cancelled quote as a bad request, not
			// a conflict.
			httpx.JSONError(w, http.StatusBadRequest, "quote_cancelled", nil)
			return
		}
		writeQuoteError(w, err)
		return
	}

	h.Cache.Del(r.Context(), publicQuoteCacheKey(q.PublicToken))

	if already {
		httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "accepted_at": acc.AcceptedAt, "already_accepted": true})
		return
	}

	monitoring.QuotesAccepted.Inc()
	emails := h.sendAcceptanceEmails(r.Context(), q, acc)
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "accepted_at": acc.AcceptedAt, "emails": emails})
}

// sendAcceptanceEmails notifies the customer and the tenant. Both sends are
// best-effort: the acceptance is already committed and a provider outage
// must not surface as a signing failure.
func (h *AcceptHandler) sendAcceptanceEmails(ctx context.Context, q *models.Quote, acc *models.Acceptance) map[string]string {
	// Detach from the request context so a client disconnect right after
	// signing does not abort the sends.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	total := mail.FormatCents(q.TotalCents, q.Currency)
	viewURL := publicQuoteURL(h.Cfg.PublicBaseURL, q.PublicToken)
	results := map[string]string{"customer": "skipped", "admin": "skipped"}

	customerTo := q.CustomerEmail
	if customerTo == "" {
		customerTo = acc.SignerEmail
	}
	if customerTo != "" {
		msg := mail.AcceptedCustomer(customerTo, q.Data.Data().Letterhead.CompanyName, acc.SignerName, q.Number, total, viewURL)
		results["customer"] = h.deliver(sendCtx, "accepted_customer", msg)
	}

	adminTo := h.adminNotifyAddress(sendCtx, q.CompanyID)
	if adminTo != "" {
		msg := mail.AcceptedAdmin(adminTo, q.CustomerName, acc.SignerName, q.Number, total, viewURL)
		results["admin"] = h.deliver(sendCtx, "accepted_admin", msg)
	}
	return results
}

func (h *AcceptHandler) deliver(ctx context.Context, kind string, msg mail.Message) string {
	if err := h.Mail.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("kind", kind).Str("to", msg.To).Msg("notification email failed")
		monitoring.EmailsSent.WithLabelValues(kind, "failed").Inc()
		return "failed"
	}
	monitoring.EmailsSent.WithLabelValues(kind, "sent").Inc()
	return "sent"
}

// adminNotifyAddress prefers the company's billing email, then the global
// notify address from the environment.
func (h *AcceptHandler) adminNotifyAddress(ctx context.Context, companyID uint) string {
	var company models.Company
	if err := h.DB.WithContext(ctx).First(&company, companyID).Error; err == nil {
		if company.BillingEmail != "" {
			return company.BillingEmail
		}
		if company.Email != "" {
			return company.Email
		}
	}
	return h.Cfg.AdminNotifyEmail
}

func publicQuoteURL(base, token string) string {
	return strings.TrimSuffix(base, "/") + "/quote?id=" + token
}

func publicQuoteCacheKey(token string) string { return "public_quote:" + token }
