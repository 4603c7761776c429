package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// OrderSummary carries the persisted totals of an order.
type OrderSummary struct {
	OrderID       string
	CustomerName  string
	Items         []OrderItem
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

const pageHeader = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">`

const pageFooter = `
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. If you have any questions, please contact support.
		</p>
	</div>
</body>
</html>`

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(s OrderSummary) string {
	var b strings.Builder
	b.WriteString(pageHeader)
	writeBanner(&b, "#667eea", "Thank you for your order")
	fmt.Fprintf(&b, `
		<p style="margin-top: 0;">Hi %s, we have received your order and will let you know when it ships.</p>`, greetingName(s))
	writeOrderNumber(&b, s.OrderID)
	writeItems(&b, s.Items)
	fmt.Fprintf(&b, `
		<table style="width: 100%%; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			%s
			%s
			%s
			<tr>
				<td style="font-size: 14px; color: #666;">Total</td>
				<td style="font-size: 24px; font-weight: bold; color: #667eea; text-align: right;">%s</td>
			</tr>
		</table>`,
		totalRow("Subtotal", s.ItemsPrice),
		totalRow("Tax", s.TaxPrice),
		totalRow("Shipping", s.ShippingPrice),
		formatMoney(s.TotalPrice),
	)
	b.WriteString(pageFooter)
	return b.String()
}

func BuildOrderCancellationBody(s OrderSummary) string {
	var b strings.Builder
	b.WriteString(pageHeader)
	writeBanner(&b, "#e55353", "Your order has been cancelled")
	fmt.Fprintf(&b, `
		<p style="margin-top: 0;">Hi %s, the order below was cancelled and its items were returned to stock.</p>`, greetingName(s))
	writeOrderNumber(&b, s.OrderID)
	writeItems(&b, s.Items)
	fmt.Fprintf(&b, `
		<p style="text-align: right;">Order total: <strong>%s</strong></p>`, formatMoney(s.TotalPrice))
	b.WriteString(pageFooter)
	return b.String()
}

func writeBanner(b *strings.Builder, color, title string) {
	fmt.Fprintf(b, `
	<div style="background: %s; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">`, color, title)
}

func writeOrderNumber(b *strings.Builder, orderID string) {
	fmt.Fprintf(b, `
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>`, html.EscapeString(orderID))
}

func writeItems(b *strings.Builder, items []OrderItem) {
	b.WriteString(`
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Amount</th>
				</tr>
			</thead>
			<tbody>`)
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		fmt.Fprintf(b, `
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				</tr>`,
			html.EscapeString(name),
			item.Quantity,
			formatMoney(item.Price),
			formatMoney(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		)
	}
	b.WriteString(`
			</tbody>
		</table>`)
}

func totalRow(label string, amount decimal.Decimal) string {
	return fmt.Sprintf(`<tr>
				<td style="font-size: 14px; color: #666;">%s</td>
				<td style="text-align: right;">%s</td>
			</tr>`, label, formatMoney(amount))
}

func greetingName(s OrderSummary) string {
	if s.CustomerName == "" {
		return "there"
	}
	return html.EscapeString(s.CustomerName)
}

// formatMoney renders an amount with two decimals and comma separators.
func formatMoney(d decimal.Decimal) string {
	str := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	whole, frac, _ := strings.Cut(str, ".")
	return sign + formatNumber(whole) + "." + frac
}

// formatNumber formats a number with comma separators
func formatNumber(str string) string {
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
