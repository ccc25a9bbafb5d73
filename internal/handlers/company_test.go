package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quotedesk/quotedesk/internal/models"
	"github.com/quotedesk/quotedesk/internal/storage"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

func TestCompanyGetAndOwnerOnlyUpdate(t *testing.T) {
	db := setupHandlerTestDB(t)
	owner, company := seedTenant(t, db, "owner")
	admin := joinTenant(t, db, company, "admin@maple.test", "admin")
	logos := storage.NewLogoStore(t.TempDir())
	h := NewCompanyHandler(db, tenant.NewResolver(db), logos)

	// Any member can read.
	w := httptest.NewRecorder()
	h.Get(w, authedRequest(http.MethodGet, "/company", "", admin.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("admin get expected 200 got %d", w.Code)
	}

	// Only the owner can mutate.
	body := `{"name":"Maple Renovations Ltd","email":"hello@maple.test","currency":"cad","tax_name":"HST","tax_rate":13,"brand_color":"#1a73e8"}`
	w = httptest.NewRecorder()
	h.Update(w, authedRequest(http.MethodPost, "/company", body, admin.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin update expected 403 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Update(w, authedRequest(http.MethodPost, "/company", body, owner.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("owner update expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var updated models.Company
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Name != "Maple Renovations Ltd" || updated.Currency != "CAD" {
		t.Fatalf("update not applied: %#v", updated)
	}
}

func TestCompanyInlineLogoUpload(t *testing.T) {
	db := setupHandlerTestDB(t)
	owner, company := seedTenant(t, db, "owner")
	logos := storage.NewLogoStore(t.TempDir())
	h := NewCompanyHandler(db, tenant.NewResolver(db), logos)

	raw := []byte("<svg xmlns='http://www.w3.org/2000/svg'/>")
	body := fmt.Sprintf(`{"name":"Maple","logo_data":%q,"logo_ext":"svg"}`, base64.StdEncoding.EncodeToString(raw))
	w := httptest.NewRecorder()
	h.Update(w, authedRequest(http.MethodPost, "/company", body, owner.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("update expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	got, ct, err := logos.Read(company.ID)
	if err != nil {
		t.Fatalf("logo read: %v", err)
	}
	if ct != "image/svg+xml" || string(got) != string(raw) {
		t.Fatalf("logo roundtrip: ct=%q body=%q", ct, got)
	}

	// Unsupported extension is a validation error.
	body = fmt.Sprintf(`{"name":"Maple","logo_data":%q,"logo_ext":"exe"}`, base64.StdEncoding.EncodeToString(raw))
	w = httptest.NewRecorder()
	h.Update(w, authedRequest(http.MethodPost, "/company", body, owner.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad ext expected 400 got %d", w.Code)
	}
}

func TestCompanyTeamListing(t *testing.T) {
	db := setupHandlerTestDB(t)
	owner, company := seedTenant(t, db, "owner")
	joinTenant(t, db, company, "sales@maple.test", "sales")
	h := NewCompanyHandler(db, tenant.NewResolver(db), storage.NewLogoStore(t.TempDir()))

	w := httptest.NewRecorder()
	h.Team(w, authedRequest(http.MethodGet, "/company/team", "", owner.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("team expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []struct {
			Role  string `json:"role"`
			Email string `json:"email"`
		} `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 members, got %d", len(resp.Items))
	}
	if resp.Items[0].Role != "owner" || resp.Items[1].Email != "sales@maple.test" {
		t.Fatalf("team: %#v", resp.Items)
	}
}
