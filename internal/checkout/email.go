package checkout

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
)

type emailData struct {
	Shop      string
	Order     model.Order
	Customer  model.Customer
	OrderDate string
	ForOwner  bool
}

var funcs = map[string]interface{}{
	"rupees": cart.FormatRupees,
	"lineTotal": func(l model.OrderLine) float64 {
		return l.LineTotal()
	},
}

var htmlEmail = htmltemplate.Must(htmltemplate.New("order").Funcs(funcs).Parse(`<div style="font-family: Georgia, serif; color: #1f2937;">
  <h2 style="color: #8B4513;">{{if .ForOwner}}New order received{{else}}Thank you for your order, {{.Customer.Name}}!{{end}}</h2>
  <p>Order Number: <strong>{{.Order.OrderNumber}}</strong><br>Order Date: {{.OrderDate}}</p>
  <p>Name: {{.Customer.Name}}<br>Email: {{.Customer.Email}}<br>Phone: {{.Customer.Phone}}<br>Address: {{.Customer.Address}}, {{.Customer.City}}</p>
  {{range .Order.Items}}
  <div style="border-bottom: 1px solid #e5e7eb; padding: 15px 0;">
    <h4 style="margin: 0 0 5px 0; font-weight: 600;">{{.Name}}</h4>
    <p style="margin: 0 0 5px 0; color: #6b7280; font-size: 14px;">{{.Period}}</p>
    <p style="margin: 0; color: #8B4513; font-weight: 600;">{{rupees .Price}} × {{.Quantity}}</p>
    <p style="margin: 0; text-align: right; font-weight: 600;">{{rupees (lineTotal .)}}</p>
  </div>
  {{end}}
  <p style="font-size: 18px; font-weight: 700;">Total: {{rupees .Order.TotalAmount}}</p>
  <p style="color: #6b7280;">The invoice is attached. {{.Shop}} will contact you soon to arrange payment and delivery.</p>
</div>`))

var textEmail = texttemplate.Must(texttemplate.New("order").Funcs(funcs).Parse(`{{if .ForOwner}}New order received{{else}}Thank you for your order, {{.Customer.Name}}!{{end}}

Order Number: {{.Order.OrderNumber}}
Order Date: {{.OrderDate}}

Name: {{.Customer.Name}}
Email: {{.Customer.Email}}
Phone: {{.Customer.Phone}}
Address: {{.Customer.Address}}, {{.Customer.City}}
{{range .Order.Items}}
- {{.Name}} ({{.Period}}): {{rupees .Price}} × {{.Quantity}} = {{rupees (lineTotal .)}}{{end}}

Total: {{rupees .Order.TotalAmount}}
`))

// renderOrderEmail produces the subject, html and plain text bodies
func renderOrderEmail(shop string, order model.Order, customer model.Customer, forOwner bool) (subject, html, text string, err error) {
	data := emailData{
		Shop:      shop,
		Order:     order,
		Customer:  customer,
		OrderDate: order.Date.Format("2 January 2006"),
		ForOwner:  forOwner,
	}

	var hb, tb bytes.Buffer
	if err = htmlEmail.Execute(&hb, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render order email: %w", err)
	}
	if err = textEmail.Execute(&tb, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render order email: %w", err)
	}

	subject = fmt.Sprintf("%s order confirmation %s", shop, order.OrderNumber)
	if forOwner {
		subject = fmt.Sprintf("New order %s from %s", order.OrderNumber, customer.Name)
	}
	return subject, hb.String(), strings.TrimSpace(tb.String()) + "\n", nil
}
