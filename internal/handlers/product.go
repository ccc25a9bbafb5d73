package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/gate"
	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/tenant"
	"github.com/quotedesk/quotedesk/internal/validation"
)

// ProductHandler manages the tenant's reusable sale-item catalog. Edits
// never touch quotes already created from an item: quotes carry their own
// snapshot.
type ProductHandler struct {
	DB       *gorm.DB
	Resolver *tenant.Resolver
}

func NewProductHandler(db *gorm.DB, res *tenant.Resolver) *ProductHandler {
	return &ProductHandler{DB: db, Resolver: res}
}

type productInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	UnitType      string `json:"unit_type"`
	PriceCents    int64  `json:"price_cents"`
	Currency      string `json:"currency"`
	ShowBreakdown *bool  `json:"show_breakdown"`
}

func (in *productInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.NonNegative("price_cents", float64(in.PriceCents), v)
	return v
}

// List: GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	dbq := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	var total int64
	dbq.Model(&models.Product{}).Count(&total)
	var products []models.Product
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	if err := gate.Authorize(tc.Role, "product:create"); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var in productInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	p := models.Product{
		CompanyID:     tc.CompanyID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		UnitType:      in.UnitType,
		PriceCents:    in.PriceCents,
		Currency:      in.Currency,
		ShowBreakdown: true,
	}
	if p.UnitType == "" {
		p.UnitType = "each"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if in.ShowBreakdown != nil {
		p.ShowBreakdown = *in.ShowBreakdown
	}
	if err := h.DB.WithContext(r.Context()).Create(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_product", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Update: POST /products/update
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	if err := gate.Authorize(tc.Role, "product:update"); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var in struct {
		ID uint `json:"id"`
		productInput
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if in.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var p models.Product
	err := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID).First(&p, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
		return
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	if in.UnitType != "" {
		p.UnitType = in.UnitType
	}
	p.PriceCents = in.PriceCents
	if in.Currency != "" {
		p.Currency = in.Currency
	}
	if in.ShowBreakdown != nil {
		p.ShowBreakdown = *in.ShowBreakdown
	}
	if err := h.DB.WithContext(r.Context()).Save(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Delete: POST /products/delete – soft delete so historical references keep
// resolving.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	if err := gate.Authorize(tc.Role, "product:delete"); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	id := idParam(r, "id")
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	res := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID).Delete(&models.Product{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_product", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
