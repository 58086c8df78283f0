// internal/template/template.go
package template

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/lipanasa/reminders-backend/internal/model"
)

// Render substitutes {key} placeholders in reminder templates. Placeholders
// with no matching key are left verbatim, never errored.
func Render(template string, vars map[string]string) string {
	result := template
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// RenderFunnel substitutes {{key}} placeholders. Funnel templates use the
// double-brace convention; the two families must not be mixed.
func RenderFunnel(template string, vars map[string]string) string {
	result := template
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

// FormatAmount renders an amount with thousands separators and zero decimal
// places in the tenant's locale, prefixed by the tenant's currency code.
// Currency and locale are configuration, not constants.
func FormatAmount(currencyCode, locale string, amount float64) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	formatted := p.Sprint(number.Decimal(amount, number.MaxFractionDigits(0)))
	if currencyCode == "" {
		return formatted
	}
	return currencyCode + " " + formatted
}

// FormatDate renders due dates the way they appear in reminder messages.
func FormatDate(t interface{ Format(string) string }) string {
	return t.Format("02 Jan 2006")
}

// InvoiceList builds the derived invoice_list variable for grouped overdue
// messages: one line per invoice.
func InvoiceList(invoices []model.Invoice, currencyCode, locale string) string {
	lines := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		lines = append(lines, fmt.Sprintf("%s: %s (Due: %s)",
			inv.Number,
			FormatAmount(currencyCode, locale, inv.Amount),
			FormatDate(inv.DueDate),
		))
	}
	return strings.Join(lines, "\n")
}
