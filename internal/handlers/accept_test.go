package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/mail"
	"github.com/quotedesk/quotedesk/internal/services"
	"github.com/quotedesk/quotedesk/internal/tenant"
)

func TestAcceptQuote(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _ := seedTenant(t, db, "owner")
	svc := services.NewQuoteService(db)

	var sentTo []string
	mailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p struct {
			To string `json:"To"`
		}
		_ = json.NewDecoder(r.Body).Decode(&p)
		sentTo = append(sentTo, p.To)
		w.WriteHeader(http.StatusOK)
	}))
	defer mailSrv.Close()

	cfg := config.Config{PublicBaseURL: "http://app.test", AdminNotifyEmail: "admin@maple.test"}
	h := NewAcceptHandler(db, svc, mail.NewClient(mailSrv.URL, "token", "quotes@maple.test"), nil, cfg)

	tc, _ := tenant.NewResolver(db).Resolve(context.Background(), user.ID)
	q, err := svc.Create(context.Background(), tc, services.CreateQuoteInput{CustomerName: "Dana", CustomerEmail: "dana@test.io"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body := `{"quote_id":"` + q.PublicToken + `","name":"Dana","email":"dana@test.io"}`
	w := httptest.NewRecorder()
	h.Accept(w, authedRequest(http.MethodPost, "/accept-quote", body, 0))
	if w.Code != http.StatusOK {
		t.Fatalf("accept expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		OK     bool              `json:"ok"`
		Emails map[string]string `json:"emails"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Emails["customer"] != "sent" || resp.Emails["admin"] != "sent" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if len(sentTo) != 2 || sentTo[0] != "dana@test.io" {
		t.Fatalf("emails went to %v", sentTo)
	}

	// Second accept is idempotent and does not resend anything.
	w = httptest.NewRecorder()
	h.Accept(w, authedRequest(http.MethodPost, "/accept-quote", `{"quote_id":"`+q.PublicToken+`","name":"Mallory"}`, 0))
	if w.Code != http.StatusOK {
		t.Fatalf("second accept expected 200 got %d", w.Code)
	}
	var second map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if second["already_accepted"] != true {
		t.Fatalf("expected already_accepted: %#v", second)
	}
	if len(sentTo) != 2 {
		t.Fatalf("idempotent accept resent emails: %v", sentTo)
	}
}

func TestAcceptValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAcceptHandler(db, services.NewQuoteService(db), mail.NewClient("", "", ""), nil, config.Config{})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing quote id", `{"name":"Dana"}`, http.StatusBadRequest},
		{"missing signature", `{"quote_id":"tok"}`, http.StatusBadRequest},
		{"non-image data url", `{"quote_id":"tok","signature_data_url":"data:text/html,x"}`, http.StatusBadRequest},
		{"unknown token", `{"quote_id":"no-such-token","name":"Dana"}`, http.StatusNotFound},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		h.Accept(w, authedRequest(http.MethodPost, "/accept-quote", c.body, 0))
		if w.Code != c.want {
			t.Errorf("%s: expected %d got %d body=%s", c.name, c.want, w.Code, w.Body.String())
		}
	}

	// Oversized drawn signatures are rejected before any lookup.
	big := `{"quote_id":"tok","signature_data_url":"data:image/png;base64,` + strings.Repeat("A", maxSignatureBytes) + `"}`
	w := httptest.NewRecorder()
	h.Accept(w, authedRequest(http.MethodPost, "/accept-quote", big, 0))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized signature expected 400 got %d", w.Code)
	}
}

func TestAcceptCancelledQuoteIsBadRequest(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _ := seedTenant(t, db, "owner")
	svc := services.NewQuoteService(db)
	h := NewAcceptHandler(db, svc, mail.NewClient("", "", ""), nil, config.Config{})

	tc, _ := tenant.NewResolver(db).Resolve(context.Background(), user.ID)
	q, _ := svc.Create(context.Background(), tc, services.CreateQuoteInput{})
	if _, err := svc.Cancel(context.Background(), tc, q.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	w := httptest.NewRecorder()
	h.Accept(w, authedRequest(http.MethodPost, "/accept-quote", `{"quote_id":"`+q.PublicToken+`","name":"Dana"}`, 0))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}
