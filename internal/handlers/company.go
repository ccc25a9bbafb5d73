package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/gate"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/storage"
	"github.com/quotedesk/quotedesk/internal/tenant"
	"github.com/quotedesk/quotedesk/internal/validation"
)

// CompanyHandler serves the tenant settings surface. Reading is open to any
// member; mutation is owner-only.
type CompanyHandler struct {
	DB       *gorm.DB
	Resolver *tenant.Resolver
	Logos    *storage.LogoStore
}

func NewCompanyHandler(db *gorm.DB, res *tenant.Resolver, logos *storage.LogoStore) *CompanyHandler {
	return &CompanyHandler{DB: db, Resolver: res, Logos: logos}
}

// Get: GET /company
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var company models.Company
	if err := h.DB.WithContext(r.Context()).First(&company, tc.CompanyID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_company", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

// Update: POST /company
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	if err := gate.Authorize(tc.Role, "company:update"); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var in struct {
		Name         string  `json:"name"`
		Email        string  `json:"email"`
		Phone        string  `json:"phone"`
		AddressLine1 string  `json:"address_line1"`
		AddressLine2 string  `json:"address_line2"`
		City         string  `json:"city"`
		Region       string  `json:"region"`
		PostalCode   string  `json:"postal_code"`
		Country      string  `json:"country"`
		Currency     string  `json:"currency"`
		BrandColor   string  `json:"brand_color"`
		LogoURL      string  `json:"logo_url"`
		PaymentTerms string  `json:"payment_terms"`
		TaxName      string  `json:"tax_name"`
		TaxRate      float64 `json:"tax_rate"`
		BillingEmail string  `json:"billing_email"`
		// LogoData uploads a new logo inline: base64 bytes plus extension.
		LogoData string `json:"logo_data"`
		LogoExt  string `json:"logo_ext"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Email("email", in.Email, v)
	validation.Email("billing_email", in.BillingEmail, v)
	validation.NonNegative("tax_rate", in.TaxRate, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var company models.Company
	if err := h.DB.WithContext(r.Context()).First(&company, tc.CompanyID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_company", nil)
		return
	}
	company.Name = strings.TrimSpace(in.Name)
	company.Email = in.Email
	company.Phone = in.Phone
	company.AddressLine1 = in.AddressLine1
	company.AddressLine2 = in.AddressLine2
	company.City = in.City
	company.Region = in.Region
	company.PostalCode = in.PostalCode
	company.Country = in.Country
	if in.Currency != "" {
		company.Currency = strings.ToUpper(in.Currency)
	}
	company.BrandColor = in.BrandColor
	company.LogoURL = in.LogoURL
	company.PaymentTerms = in.PaymentTerms
	if in.TaxName != "" {
		company.TaxName = in.TaxName
	}
	company.TaxRate = in.TaxRate
	company.BillingEmail = in.BillingEmail

	if in.LogoData != "" {
		raw, err := base64.StdEncoding.DecodeString(in.LogoData)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"logo_data": "invalid_base64"})
			return
		}
		path, err := h.Logos.Save(company.ID, in.LogoExt, raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"logo_ext": "unsupported"})
			return
		}
		company.LogoPath = path
	}

	if err := h.DB.WithContext(r.Context()).Save(&company).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_company", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

// Team: GET /company/team – current memberships with user names.
func (h *CompanyHandler) Team(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var members []struct {
		UserID    uint   `json:"user_id"`
		Role      string `json:"role"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	err := h.DB.WithContext(r.Context()).
		Table("memberships").
		Select("memberships.user_id, memberships.role, users.email, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.company_id = ?", tc.CompanyID).
		Order("memberships.id asc").
		Scan(&members).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_team", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": members})
}
