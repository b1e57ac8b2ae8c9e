package brevo

import (
	"bytes"
	"fmt"
	"html/template"

	"storefront/domain/notification"
)

var templates = template.Must(template.New("base").Parse(`{{define "items"}}<ul>{{range .items}}<li>{{.name}} × {{.quantity}} ({{.price}})</li>{{end}}</ul>{{end}}
{{define "orderConfirmation"}}<h2>Thank you for your order!</h2>
<p>Order <strong>#{{.orderId}}</strong> has been placed.</p>{{template "items" .}}
<p>Total: {{.currency}} {{.grandTotal}}</p>
<p>Tracking number: {{.trackingNumber}} ({{.carrier}}), estimated delivery {{.estimatedDelivery}}.</p>{{end}}
{{define "orderStatusUpdate"}}<h2>Your order has been updated</h2>
<p>Order <strong>#{{.orderId}}</strong> is now <strong>{{.status}}</strong>.</p>{{with .note}}<p>{{.}}</p>{{end}}
<p>Tracking number: {{.trackingNumber}}</p>{{end}}
{{define "orderCancellation"}}<h2>Your order has been cancelled</h2>
<p>Order <strong>#{{.orderId}}</strong> was cancelled.</p>{{with .reason}}<p>Reason: {{.}}</p>{{end}}
<p>Any payment will be refunded once processed.</p>{{end}}
{{define "returnRequest"}}<h2>We received your return request</h2>
<p>Order <strong>#{{.orderId}}</strong>.</p>{{with .reason}}<p>Reason: {{.}}</p>{{end}}{{with .returnTrackingNumber}}<p>Return tracking number: {{.}}</p>{{end}}{{end}}
{{define "refundProcessed"}}<h2>Your refund has been processed</h2>
<p>Order <strong>#{{.orderId}}</strong>: {{.currency}} {{.refundAmount}} has been refunded.</p>{{end}}`))

func render(msg notification.Message) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(msg.Kind), msg.Payload); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", msg.Kind, err)
	}
	return buf.String(), nil
}
