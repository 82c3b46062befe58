// internal/service/email/service.go
package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config holds the SMTP settings. An empty Host disables delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers the marketplace's plain-text emails over SMTP.
type EmailSender struct {
	cfg    Config
	dialer sender
	logger *zap.Logger
}

// NewEmailSender creates a new SMTP email sender.
func NewEmailSender(cfg Config, logger *zap.Logger) *EmailSender {
	s := &EmailSender{cfg: cfg, logger: logger}
	if cfg.Host != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

// Enabled reports whether an SMTP server is configured.
func (e *EmailSender) Enabled() bool {
	return e.dialer != nil
}

// Send sends a plain-text email.
func (e *EmailSender) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("email recipient is empty")
	}
	if e.dialer == nil {
		e.logger.Warn("smtp not configured, email dropped",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", e.cfg.From, e.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendLogged sends and logs failures; used for notices that must not break the caller.
func (e *EmailSender) sendLogged(to, subject, body string) {
	if err := e.Send(to, subject, body); err != nil {
		e.logger.Error("email delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// ========== Messages ==========

// SendOTP delivers a password reset code. Errors are returned to the caller.
func (e *EmailSender) SendOTP(to, name, code string, ttl time.Duration) error {
	body := fmt.Sprintf(`Hello %s,

Your password reset code is: %s

The code expires in %d minutes. If you did not ask to reset your password you can ignore this message.

%s`, greetingName(name), code, int(ttl.Minutes()), e.cfg.FromName)
	return e.Send(to, "Your password reset code", body)
}

func (e *EmailSender) SendWelcome(to, name string) {
	body := fmt.Sprintf(`Hello %s,

Welcome to %s. Your account is ready and you can start posting vehicle ads right away.

%s`, greetingName(name), e.cfg.FromName, e.cfg.FromName)
	e.sendLogged(to, "Welcome to "+e.cfg.FromName, body)
}

func (e *EmailSender) SendAdExpiryWarning(to, name, adTitle string, expiry time.Time) {
	body := fmt.Sprintf(`Hello %s,

Your ad "%s" expires on %s. Renew it from your dashboard to keep it visible.

%s`, greetingName(name), adTitle, expiry.Format("2006-01-02"), e.cfg.FromName)
	e.sendLogged(to, "Your ad is about to expire", body)
}

func (e *EmailSender) SendPaymentReceipt(to, name, orderID, itemName string, amount decimal.Decimal, currency string, paidAt time.Time) {
	body := fmt.Sprintf(`Hello %s,

We received your payment.

Order:  %s
Item:   %s
Amount: %s %s
Date:   %s

Thank you for using %s.`, greetingName(name), orderID, itemName, currency, amount.StringFixed(2),
		paidAt.Format("2006-01-02 15:04"), e.cfg.FromName)
	e.sendLogged(to, "Payment receipt "+orderID, body)
}

func (e *EmailSender) SendBanNotice(to, name, reason string, until *time.Time) {
	period := "until further notice"
	if until != nil {
		period = "until " + until.Format("2006-01-02")
	}
	body := fmt.Sprintf(`Hello %s,

Your account has been suspended %s.

Reason: %s

Reply to this message if you believe this is a mistake.

%s`, greetingName(name), period, reason, e.cfg.FromName)
	e.sendLogged(to, "Your account has been suspended", body)
}

func greetingName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "there"
	}
	return name
}
