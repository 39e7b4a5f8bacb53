// Package mailer sends transactional email over SMTP with gomail.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/mdsaddlery/storefront/internal/config"
	"github.com/mdsaddlery/storefront/internal/model"
)

// ErrNotConfigured is returned when SMTP settings are missing.
var ErrNotConfigured = errors.New("email config missing")

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer composes OTP and order emails.
type Mailer struct {
	cfg    config.MailConfig
	otpTTL time.Duration
	sender Sender
}

// New creates a Mailer that dials the configured SMTP server.
func New(cfg config.MailConfig, otpTTL time.Duration) *Mailer {
	var sender Sender
	if cfg.SMTPHost != "" {
		sender = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}
	return &Mailer{cfg: cfg, otpTTL: otpTTL, sender: sender}
}

// NewWithSender creates a Mailer with a custom Sender.
// This is primarily used for testing.
func NewWithSender(cfg config.MailConfig, otpTTL time.Duration, sender Sender) *Mailer {
	return &Mailer{cfg: cfg, otpTTL: otpTTL, sender: sender}
}

// Configured reports whether messages can be sent.
func (m *Mailer) Configured() bool {
	return m.sender != nil && m.cfg.From != ""
}

// SendOTP mails a one-time code worded for its purpose.
func (m *Mailer) SendOTP(ctx context.Context, to, name, code string, purpose model.Purpose) error {
	subject, body := otpContent(name, code, purpose, m.otpTTL)
	if err := m.send(ctx, to, subject, body); err != nil {
		return err
	}
	log.Info().Str("to", to).Str("purpose", string(purpose)).Msg("otp email sent")
	return nil
}

// SendOrderConfirmation mails the order summary to the customer.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	subject := "Your order has been placed"
	body := orderBody("Thank you for your order, "+order.Name+"!", order)
	if err := m.send(ctx, order.Email, subject, body); err != nil {
		return err
	}
	log.Info().Str("order_id", order.ID.String()).Msg("order confirmation sent")
	return nil
}

// SendStoreNotification mails the new order to the store inbox.
func (m *Mailer) SendStoreNotification(ctx context.Context, order *model.Order) error {
	to := m.cfg.StoreEmail
	if to == "" {
		to = m.cfg.From
	}
	subject := fmt.Sprintf("New order from %s", order.Name)
	body := orderBody("A new order was placed.", order)
	return m.send(ctx, to, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func otpContent(name, code string, purpose model.Purpose, ttl time.Duration) (subject, body string) {
	heading, intro := "Verify your account", "Use this code to verify your email address:"
	subject = "Your verification code"
	if purpose == model.PurposeReset {
		heading, intro = "Reset your password", "Use this code to reset your password:"
		subject = "Your password reset code"
	}
	greeting := "Hello,"
	if strings.TrimSpace(name) != "" {
		greeting = fmt.Sprintf("Hello %s,", html.EscapeString(name))
	}

	body = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>%s</h2>
    <p>%s</p>
    <p>%s</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>This code is valid for %d minutes.</p>
  </div>
</body>
</html>`, heading, greeting, intro, code, int(ttl.Minutes()))
	return subject, body
}

func orderBody(heading string, order *model.Order) string {
	var rows strings.Builder
	for _, item := range order.Items {
		size := item.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>\n",
			html.EscapeString(item.Name), html.EscapeString(size), item.Quantity, rupees(item.Price))
	}

	coupon := ""
	if order.CouponCode != nil {
		coupon = fmt.Sprintf("<p>Coupon %s: -%s</p>", html.EscapeString(*order.CouponCode), rupees(order.Discount))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 16px;">
    <h2>%s</h2>
    <p>Order <strong>%s</strong></p>
    <table cellpadding="6" style="border-collapse: collapse;">
      <tr><th>Item</th><th>Size</th><th>Qty</th><th>Price</th></tr>
%s    </table>
    %s
    <p><strong>Total: %s</strong></p>
    <p>Payment: %s</p>
    <p>Ship to: %s, %s<br/>Phone: %s</p>
  </div>
</body>
</html>`,
		html.EscapeString(heading), order.ID, rows.String(), coupon, rupees(order.TotalAmount),
		html.EscapeString(order.Payment), html.EscapeString(order.Name),
		html.EscapeString(order.Address), html.EscapeString(order.Phone))
}

func rupees(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}
