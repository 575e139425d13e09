package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"peelojuice/internal/config"
	"peelojuice/internal/models"
)

// EmailSender sends transactional mail over plain SMTP.
type EmailSender struct {
	cfg config.EmailConfig
}

func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

func (e *EmailSender) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", e.cfg.SMTPHost, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.SMTPUsername, e.cfg.SMTPPassword, e.cfg.SMTPHost)

	msg := []byte(
		"From: " + e.cfg.From + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// SendOrderConfirmation mails the order summary with an embedded pickup QR.
func (e *EmailSender) SendOrderConfirmation(ctx context.Context, to string, order *models.Order, qrBase64 string) error {
	subject := fmt.Sprintf("Order #%d confirmed", order.OrderNumber)

	var items strings.Builder
	for _, item := range order.Items {
		items.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>x%d</td><td>₹%s</td></tr>",
			item.JuiceName, item.Quantity, item.Subtotal().StringFixed(2),
		))
	}

	qrBlock := ""
	if qrBase64 != "" {
		qrBlock = fmt.Sprintf(
			`<p>Show this code at pickup:</p><img src="data:image/png;base64,%s" alt="pickup code" width="200"/>`,
			qrBase64,
		)
	}

	body := fmt.Sprintf(`
<html><body>
<h2>Thanks for your order!</h2>
<p>Order <strong>#%d</strong> is being prepared.</p>
<table>%s</table>
<p>Discount: ₹%s</p>
<p><strong>Total paid: ₹%s</strong></p>
%s
</body></html>`,
		order.OrderNumber,
		items.String(),
		order.Discount.StringFixed(2),
		order.TotalAmount.StringFixed(2),
		qrBlock,
	)

	return e.send(to, subject, body)
}
