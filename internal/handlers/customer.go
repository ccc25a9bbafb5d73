package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk/internal/httpx"
	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/tenant"
	"github.com/quotedesk/quotedesk/internal/validation"
)

// CustomerHandler is the tenant-scoped customer CRUD.
type CustomerHandler struct {
	DB       *gorm.DB
	Resolver *tenant.Resolver
}

func NewCustomerHandler(db *gorm.DB, res *tenant.Resolver) *CustomerHandler {
	return &CustomerHandler{DB: db, Resolver: res}
}

type customerInput struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CompanyName  string `json:"company_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

func (in *customerInput) validate() validation.Violations {
	v := validation.Violations{}
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" && strings.TrimSpace(in.CompanyName) == "" {
		v["name"] = "required"
	}
	validation.Email("email", in.Email, v)
	return v
}

func (in *customerInput) apply(c *models.Customer) {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.CompanyName = strings.TrimSpace(in.CompanyName)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.AddressLine1 = in.AddressLine1
	c.AddressLine2 = in.AddressLine2
	c.City = in.City
	c.Region = in.Region
	c.PostalCode = in.PostalCode
	c.Country = in.Country
}

// List: GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	dbq := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(company_name) LIKE ? OR lower(email) LIKE ?", like, like, like, like)
	}
	var total int64
	dbq.Model(&models.Customer{}).Count(&total)
	var customers []models.Customer
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&customers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_customers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": customers, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var in customerInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	c := models.Customer{CompanyID: tc.CompanyID}
	in.apply(&c)
	if err := h.DB.WithContext(r.Context()).Create(&c).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// Update: POST /customers/update
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	var in struct {
		ID uint `json:"id"`
		customerInput
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
	var c models.Customer
	err := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID).First(&c, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_customer", nil)
		return
	}
	in.apply(&c)
	if err := h.DB.WithContext(r.Context()).Save(&c).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete: POST /customers/delete – removes the contact record only. Quotes
// keep their own customer snapshot and are untouched.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	id := idParam(r, "id")
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	res := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID).Delete(&models.Customer{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_customer", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Quotes: GET /customers/quotes?id= – a customer's quote history. The link
// is soft: foreign key first, then stamped email, then exact name.
func (h *CustomerHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenant(w, r, h.Resolver)
	if !ok {
		return
	}
	id := idParam(r, "id")
	if id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	var c models.Customer
	err := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_customer", nil)
		return
	}
	dbq := h.DB.WithContext(r.Context()).Where("company_id = ?", tc.CompanyID)
	cond := h.DB.Where("customer_id = ?", c.ID)
	if c.Email != "" {
		cond = cond.Or("customer_email = ?", c.Email)
	}
	if name := c.DisplayName(); name != "" {
		cond = cond.Or("customer_name = ?", name)
	}
	var quotes []models.Quote
	if err := dbq.Where(cond).Order("id desc").Find(&quotes).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_quotes", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": len(quotes)})
}
