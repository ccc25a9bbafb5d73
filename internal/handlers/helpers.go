package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/services"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

// requireTenant resolves the caller's tenant context or writes the
// appropriate error. Handlers bail out when ok is false.
func requireTenant(w http.ResponseWriter, r *http.Request, res *tenant.Resolver) (tenant.Context, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return tenant.Context{}, false
	}
	tc, err := res.Resolve(r.Context(), uid)
	if err != nil {
		log.Error().Err(err).Uint("user_id", uid).Msg("tenant resolution failed")
		httpx.JSONError(w, http.StatusInternalServerError, "tenant_resolution_failed", nil)
		return tenant.Context{}, false
	}
	return tc, true
}

// writeQuoteError maps quote service errors onto the HTTP taxonomy.
func writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrQuoteAccepted):
		httpx.JSONError(w, http.StatusConflict, "quote_already_accepted", nil)
	case errors.Is(err, services.ErrQuoteCancelled):
		httpx.JSONError(w, http.StatusConflict, "quote_cancelled", nil)
	default:
		log.Error().Err(err).Msg("quote operation failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// idParam reads a positive uint from a query or form field.
func idParam(r *http.Request, name string) uint {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = r.FormValue(name)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// pagination reads limit/page query params. Limit defaults to 50, capped at
// 200; page is 1-based.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}
