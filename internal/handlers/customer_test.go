package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/services"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

func TestCustomerCRUD(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _ := seedTenant(t, db, "sales")
	h := NewCustomerHandler(db, tenant.NewResolver(db))

	// Create
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/customers", `{"first_name":"Ray","last_name":"Ng","email":"ray@test.io"}`, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Customer
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// A record with no name at all is rejected.
	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/customers", `{"email":"anon@test.io"}`, user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("nameless create expected 400 got %d", w.Code)
	}

	// Company-only names are fine.
	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/customers", `{"company_name":"Acme"}`, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("company-name create expected 201 got %d", w.Code)
	}

	// Update
	w = httptest.NewRecorder()
	h.Update(w, authedRequest(http.MethodPost, "/customers/update", fmt.Sprintf(`{"id":%d,"first_name":"Raymond","last_name":"Ng"}`, created.ID), user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("update expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	// List with search
	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/customers?q=raymond", "", user.ID))
	var list struct {
		Items []models.Customer `json:"items"`
		Total int64             `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || list.Items[0].FirstName != "Raymond" {
		t.Fatalf("search result: %#v", list)
	}

	// Delete
	w = httptest.NewRecorder()
	h.Delete(w, authedRequest(http.MethodPost, fmt.Sprintf("/customers/delete?id=%d", created.ID), "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("delete expected 200 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Delete(w, authedRequest(http.MethodPost, fmt.Sprintf("/customers/delete?id=%d", created.ID), "", user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete expected 404 got %d", w.Code)
	}
}

func TestCustomerQuotesSoftLinkage(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _ := seedTenant(t, db, "owner")
	h := NewCustomerHandler(db, tenant.NewResolver(db))
	svc := services.NewQuoteService(db)

	resolver := tenant.NewResolver(db)
	tc, _ := resolver.Resolve(authedRequest(http.MethodGet, "/", "", user.ID).Context(), user.ID)

	cust := models.Customer{CompanyID: tc.CompanyID, FirstName: "Ray", LastName: "Ng", Email: "ray@test.io"}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}

	// One quote linked by id, one only by stamped email, one by exact name,
	// one unrelated.
	ctx := authedRequest(http.MethodGet, "/", "", user.ID).Context()
	if _, err := svc.Create(ctx, tc, services.CreateQuoteInput{CustomerID: cust.ID}); err != nil {
		t.Fatalf("quote by id: %v", err)
	}
	if _, err := svc.Create(ctx, tc, services.CreateQuoteInput{CustomerEmail: "ray@test.io"}); err != nil {
		t.Fatalf("quote by email: %v", err)
	}
	if _, err := svc.Create(ctx, tc, services.CreateQuoteInput{CustomerName: "Ray Ng"}); err != nil {
		t.Fatalf("quote by name: %v", err)
	}
	if _, err := svc.Create(ctx, tc, services.CreateQuoteInput{CustomerName: "Somebody Else"}); err != nil {
		t.Fatalf("unrelated quote: %v", err)
	}

	w := httptest.NewRecorder()
	h.Quotes(w, authedRequest(http.MethodGet, fmt.Sprintf("/customers/quotes?id=%d", cust.ID), "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var list struct {
		Items []models.Quote `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Items) != 3 {
		t.Fatalf("expected 3 linked quotes, got %d", len(list.Items))
	}
}

func TestProductCRUDAndRoleGate(t *testing.T) {
	db := setupHandlerTestDB(t)
	admin, company := seedTenant(t, db, "admin")
	sales := joinTenant(t, db, company, "sales@maple.test", "sales")
	h := NewProductHandler(db, tenant.NewResolver(db))

	// Admin creates; defaults fill in.
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/products", `{"name":"Site visit","price_cents":15000}`, admin.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var p models.Product
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.UnitType != "each" || p.Currency != "USD" || !p.ShowBreakdown {
		t.Fatalf("defaults: %#v", p)
	}

	// Sales can list but not create or delete.
	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/products", "", sales.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("sales list expected 200 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/products", `{"name":"Nope","price_cents":1}`, sales.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("sales create expected 403 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Delete(w, authedRequest(http.MethodPost, fmt.Sprintf("/products/delete?id=%d", p.ID), "", sales.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("sales delete expected 403 got %d", w.Code)
	}

	// Negative price is rejected.
	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/products", `{"name":"Bad","price_cents":-5}`, admin.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative price expected 400 got %d", w.Code)
	}

	// Soft delete hides the product from listings.
	w = httptest.NewRecorder()
	h.Delete(w, authedRequest(http.MethodPost, fmt.Sprintf("/products/delete?id=%d", p.ID), "", admin.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("delete expected 200 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/products", "", admin.ID))
	var list struct {
		Total int64 `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 0 {
		t.Fatalf("soft-deleted product still listed: total=%d", list.Total)
	}
}
