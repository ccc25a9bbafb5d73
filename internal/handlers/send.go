package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/mail"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/monitoring"
	"github.com/quotedesk/quotedesk/internal/services"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

// SendLinkHandler implements POST /send-quote-link: email the customer their
// view link and mark the quote Sent. The status only advances once the email
// is actually dispatched.
type SendLinkHandler struct {
	DB       *gorm.DB
	Svc      *services.QuoteService
	Resolver *tenant.Resolver
	Mail     *mail.Client
	Cache    *cache.Cache
	Cfg      config.Config
}

func NewSendLinkHandler(db *gorm.DB, svc *services.QuoteService, res *tenant.Resolver, m *mail.Client, c *cache.Cache, cfg config.Config) *SendLinkHandler {
	return &SendLinkHandler{DB: db, Svc: svc, Resolver: res, Mail: m, Cache: c, Cfg: cfg}
}

func (h *SendLinkHandler) Send(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var req struct {
		QuoteID uint `json:"quote_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.QuoteID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"quote_id": "required"})
		return
	}

	q, err := h.Svc.Get(r.Context(), tc, req.QuoteID)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	switch models.NormalizeStatus(q.Status) {
	case models.StatusCancelled:
		httpx.JSONError(w, http.StatusConflict, "quote_cancelled", nil)
		return
	case models.StatusAccepted:
		httpx.JSONError(w, http.StatusConflict, "quote_already_accepted", nil)
		return
	}
	if q.CustomerEmail == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"customer_email": "required"})
		return
	}

	viewURL := publicQuoteURL(h.Cfg.PublicBaseURL, q.PublicToken)
	data := q.Data.Data()
	msg := mail.QuoteReady(q.CustomerEmail, data.Letterhead.CompanyName, q.CustomerName, q.Number, mail.FormatCents(q.TotalCents, q.Currency), viewURL)
	if err := h.Mail.Send(r.Context(), msg); err != nil {
		log.Error().Err(err).Uint("quote_id", q.ID).Msg("quote link email failed")
		monitoring.EmailsSent.WithLabelValues("quote_ready", "failed").Inc()
		httpx.JSONError(w, http.StatusBadGateway, "email_send_failed", nil)
		return
	}
	monitoring.EmailsSent.WithLabelValues("quote_ready", "sent").Inc()

	q, err = h.Svc.MarkSent(r.Context(), tc, q.ID)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	h.Cache.Del(r.Context(), publicQuoteCacheKey(q.PublicToken))

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "status": q.Status, "view_url": viewURL})
}
