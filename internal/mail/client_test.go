package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSend(t *testing.T) {
	var got map[string]string
	var token, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Postmark-Server-Token")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "quotes@maple.test")
	err := c.Send(context.Background(), Message{To: "dana@test.io", Subject: "Hi", HTMLBody: "<p>hi</p>", TextBody: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if token != "secret" || contentType != "application/json" {
		t.Fatalf("headers: token=%q ct=%q", token, contentType)
	}
	if got["From"] != "quotes@maple.test" || got["To"] != "dana@test.io" || got["HtmlBody"] != "<p>hi</p>" {
		t.Fatalf("payload: %#v", got)
	}
}

func TestClientSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "quotes@maple.test")
	if err := c.Send(context.Background(), Message{To: "x@y.test"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestClientDisabledWithoutToken(t *testing.T) {
	c := NewClient("http://unused.test", "", "quotes@maple.test")
	if err := c.Send(context.Background(), Message{To: "x@y.test"}); err != ErrDisabled {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{3890, "USD", "USD 38.90"},
		{389000, "CAD", "CAD 3890.00"},
		{5, "USD", "USD 0.05"},
		{-1250, "EUR", "EUR -12.50"},
		{0, "USD", "USD 0.00"},
	}
	for _, c := range cases {
		if got := FormatCents(c.cents, c.currency); got != c.want {
			t.Errorf("FormatCents(%d, %q) = %q, want %q", c.cents, c.currency, got, c.want)
		}
	}
}

func TestTemplatesRender(t *testing.T) {
	m := QuoteReady("dana@test.io", "Maple", "Dana", "Q-00001", "CAD 38.90", "http://app.test/quote?id=tok")
	if m.To != "dana@test.io" || !strings.Contains(m.Subject, "Q-00001") {
		t.Fatalf("message: %#v", m)
	}
	if !strings.Contains(m.HTMLBody, "Q-00001") || !strings.Contains(m.HTMLBody, "http://app.test/quote?id=tok") {
		t.Fatalf("html body: %s", m.HTMLBody)
	}

	inv := Invite("new@maple.test", "Maple", "sales", "http://app.test/invite?token=t", "2026-09-07")
	if !strings.Contains(inv.HTMLBody, "sales") || !strings.Contains(inv.TextBody, "2026-09-07") {
		t.Fatalf("invite body: %s", inv.HTMLBody)
	}
}
