package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/handlers"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/mail"
	"github.com/quotedesk/quotedesk/internal/monitoring"
	"github.com/quotedesk/quotedesk/internal/services"
	"github.com/quotedesk/quotedesk/internal/storage"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, mailer *mail.Client, c *cache.Cache, logos *storage.LogoStore) http.Handler {
	mux := http.NewServeMux()

	resolver := tenant.NewResolver(db)
	quoteSvc := services.NewQuoteService(db)

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Liveness plus a cheap DB round trip; no detail in the body.
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Auth endpoints
	ah := handlers.NewAuthHandler(db, resolver)
	mux.Handle("/register", post(ah.Register))
	mux.Handle("/login", post(ah.Login))
	mux.Handle("/logout", post(ah.Logout))

	// Customer endpoints. List/Create via /customers; mutations via
	// /customers/update & /customers/delete for simplicity.
	ch := handlers.NewCustomerHandler(db, resolver)
	mux.Handle("/customers", private(listCreate(ch.List, ch.Create)))
	mux.Handle("/customers/update", private(post(ch.Update)))
	mux.Handle("/customers/delete", private(post(ch.Delete)))
	mux.Handle("/customers/quotes", private(http.HandlerFunc(ch.Quotes)))

	// Product catalog
	ph := handlers.NewProductHandler(db, resolver)
	mux.Handle("/products", private(listCreate(ph.List, ph.Create)))
	mux.Handle("/products/update", private(post(ph.Update)))
	mux.Handle("/products/delete", private(post(ph.Delete)))

	// Company settings and team
	coh := handlers.NewCompanyHandler(db, resolver, logos)
	mux.Handle("/company", private(listCreate(coh.Get, coh.Update)))
	mux.Handle("/company/team", private(http.HandlerFunc(coh.Team)))

	ivh := handlers.NewInviteHandler(db, resolver, mailer, cfg)
	mux.Handle("/invite-user", private(post(ivh.Invite)))

	// Quote endpoints
	qh := handlers.NewQuoteHandler(db, quoteSvc, resolver)
	mux.Handle("/quotes", private(listCreate(qh.List, qh.Create)))
	mux.Handle("/quotes/get", private(http.HandlerFunc(qh.Get)))
	mux.Handle("/quotes/update", private(post(qh.Update)))
	mux.Handle("/quotes/cancel", private(post(qh.Cancel)))
	mux.Handle("/quotes/duplicate", private(post(qh.Duplicate)))

	sh := handlers.NewSendLinkHandler(db, quoteSvc, resolver, mailer, c, cfg)
	mux.Handle("/send-quote-link", private(post(sh.Send)))

	// Public (token-keyed) endpoints
	ach := handlers.NewAcceptHandler(db, quoteSvc, mailer, c, cfg)
	mux.Handle("/accept-quote", post(ach.Accept))
	pqh := handlers.NewPublicQuoteHandler(db, quoteSvc, c)
	mux.Handle("/public-quote", http.HandlerFunc(pqh.Get))
	lh := handlers.NewLogoHandler(db, logos)
	mux.Handle("/company-logo", http.HandlerFunc(lh.Get))

	return withRecover(withLogging(mux))
}

// private wraps a handler with session parsing plus the 401 guard.
func private(next http.Handler) http.Handler {
	return auth.Middleware(auth.RequireAuth(next))
}

func post(fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		fn(w, r)
	})
}

func listCreate(get, create http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			get(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)
		monitoring.RequestDuration.WithLabelValues(r.URL.Path).Observe(elapsed.Seconds())
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
