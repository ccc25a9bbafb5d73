package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/storage"
)

// LogoHandler serves GET /company-logo for <img> tags on quote pages. It
// resolves a company via quote_id (public token) or company_id, then tries
// the external logo URL, the logo bucket, and finally a generated initials
// placeholder. It always answers 200 with image bytes: a broken image icon
// on a customer-facing quote is worse than a placeholder.
type LogoHandler struct {
	DB    *gorm.DB
	Store *storage.LogoStore
}

func NewLogoHandler(db *gorm.DB, store *storage.LogoStore) *LogoHandler {
	return &LogoHandler{DB: db, Store: store}
}

var logoHTTPClient = &http.Client{Timeout: 5 * time.Second}

const maxLogoProxyBytes = 4 << 20

func (h *LogoHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, ok := h.resolveCompany(r)
	if !ok {
		writeImage(w, "image/svg+xml", storage.PlaceholderSVG("?", ""))
		return
	}

	if company.LogoURL != "" && strings.HasPrefix(company.LogoURL, "http") {
		if body, ct, err := fetchLogo(company.LogoURL); err == nil {
			writeImage(w, ct, body)
			return
		}
	}
	if body, ct, err := h.Store.Read(company.ID); err == nil {
		writeImage(w, ct, body)
		return
	}
	writeImage(w, "image/svg+xml", storage.PlaceholderSVG(company.Name, company.BrandColor))
}

func (h *LogoHandler) resolveCompany(r *http.Request) (models.Company, bool) {
	var company models.Company
	db := h.DB.WithContext(r.Context())

	if token := r.URL.Query().Get("quote_id"); token != "" {
		var q models.Quote
		err := db.Select("company_id").Where("public_token = ?", token).First(&q).Error
		if err != nil {
			// Older clients pass the numeric row id.
			if n, convErr := strconv.ParseUint(token, 10, 64); convErr == nil {
				err = db.Select("company_id").First(&q, uint(n)).Error
			}
		}
		if err == nil && db.First(&company, q.CompanyID).Error == nil {
			return company, true
		}
		return company, false
	}
	if id := idParam(r, "company_id"); id != 0 {
		if db.First(&company, id).Error == nil {
			return company, true
		}
	}
	return company, false
}

func fetchLogo(url string) ([]byte, string, error) {
	resp, err := logoHTTPClient.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", io.ErrUnexpectedEOF
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return nil, "", io.ErrUnexpectedEOF
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoProxyBytes))
	if err != nil {
		return nil, "", err
	}
	return body, ct, nil
}

func writeImage(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
