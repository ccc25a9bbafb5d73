package mail

import (
	"fmt"
	"html/template"
	"strings"
)

// FormatCents renders minor units as a human amount, e.g. 389000 USD ->
// "USD 3,890.00" without the thousands separator for simplicity.
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}

var quoteReadyTmpl = template.Must(template.New("quote_ready").Parse(`
<p>Hi {{.CustomerName}},</p>
<p>{{.CompanyName}} has prepared quote <strong>{{.Number}}</strong> for you
({{.Total}}).</p>
<p><a href="{{.ViewURL}}">View and sign your quote</a></p>
<p>{{.CompanyName}}</p>`))

var acceptedCustomerTmpl = template.Must(template.New("accepted_customer").Parse(`
<p>Hi {{.SignerName}},</p>
<p>Thanks for accepting quote <strong>{{.Number}}</strong> from
{{.CompanyName}} ({{.Total}}). A copy is available any time:</p>
<p><a href="{{.ViewURL}}">View your signed quote</a></p>`))

var acceptedAdminTmpl = template.Must(template.New("accepted_admin").Parse(`
<p>Quote <strong>{{.Number}}</strong> for {{.CustomerName}} was just signed
by {{.SignerName}} ({{.Total}}).</p>
<p><a href="{{.ViewURL}}">Open the quote</a></p>`))

var inviteTmpl = template.Must(template.New("invite").Parse(`
<p>You have been invited to join <strong>{{.CompanyName}}</strong> on
QuoteDesk as {{.Role}}.</p>
<p><a href="{{.InviteURL}}">Accept the invitation</a></p>
<p>This link expires on {{.Expires}}.</p>`))

type quoteEmailData struct {
	CompanyName  string
	CustomerName string
	SignerName   string
	Number       string
	Total        string
	ViewURL      string
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

// QuoteReady builds the "your quote is ready" customer notification.
func QuoteReady(to, companyName, customerName, number, total, viewURL string) Message {
	d := quoteEmailData{CompanyName: companyName, CustomerName: customerName, Number: number, Total: total, ViewURL: viewURL}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Your quote %s from %s", number, companyName),
		HTMLBody: render(quoteReadyTmpl, d),
		TextBody: fmt.Sprintf("%s has prepared quote %s for you (%s). View and sign: %s", companyName, number, total, viewURL),
	}
}

// AcceptedCustomer builds the signed-confirmation sent to the customer.
func AcceptedCustomer(to, companyName, signerName, number, total, viewURL string) Message {
	d := quoteEmailData{CompanyName: companyName, SignerName: signerName, Number: number, Total: total, ViewURL: viewURL}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Quote %s accepted", number),
		HTMLBody: render(acceptedCustomerTmpl, d),
		TextBody: fmt.Sprintf("Thanks for accepting quote %s from %s (%s). View: %s", number, companyName, total, viewURL),
	}
}

// AcceptedAdmin builds the signed-alert sent to the tenant's notify address.
func AcceptedAdmin(to, customerName, signerName, number, total, viewURL string) Message {
	d := quoteEmailData{CustomerName: customerName, SignerName: signerName, Number: number, Total: total, ViewURL: viewURL}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Quote %s was signed", number),
		HTMLBody: render(acceptedAdminTmpl, d),
		TextBody: fmt.Sprintf("Quote %s for %s was signed by %s (%s). Open: %s", number, customerName, signerName, total, viewURL),
	}
}

// Invite builds the team invitation email.
func Invite(to, companyName, role, inviteURL, expires string) Message {
	data := struct {
		CompanyName, Role, InviteURL, Expires string
	}{companyName, role, inviteURL, expires}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("You're invited to %s on QuoteDesk", companyName),
		HTMLBody: render(inviteTmpl, data),
		TextBody: fmt.Sprintf("You have been invited to join %s as %s. Accept: %s (expires %s)", companyName, role, inviteURL, expires),
	}
}
