// Package email delivers the optional email copy of pipeline notifications.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"collab_pipeline_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers notification digests by email.
type Sender interface {
	SendOverdueEmail(ctx context.Context, toEmail, recipientName, linkURL string, items []DigestItem) error
	SendDeadlineReminderEmail(ctx context.Context, toEmail, recipientName, linkURL string, items []DigestItem) error
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendOverdueEmail(context.Context, string, string, string, []DigestItem) error {
	return nil
}

func (NoopSender) SendDeadlineReminderEmail(context.Context, string, string, string, []DigestItem) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a NoopSender otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendOverdueEmail(ctx context.Context, toEmail, recipientName, linkURL string, items []DigestItem) error {
	content, err := renderEmailTemplate("overdue.html", digestEmailData{
		baseEmailData: baseEmailData{
			Title:    "Collaborations overdue",
			Heading:  "Collaborations overdue",
			CTALabel: "Open pipeline",
			CTAURL:   linkURL,
		},
		RecipientName: recipientName,
		Items:         digestItems(items),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectOverdueFmt, len(items)), content)
}

func (s *SMTPSender) SendDeadlineReminderEmail(ctx context.Context, toEmail, recipientName, linkURL string, items []DigestItem) error {
	content, err := renderEmailTemplate("deadline_reminder.html", digestEmailData{
		baseEmailData: baseEmailData{
			Title:    "Deadlines approaching",
			Heading:  "Deadlines approaching",
			CTALabel: "Open pipeline",
			CTAURL:   linkURL,
		},
		RecipientName: recipientName,
		Items:         digestItems(items),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectDeadlineReminderFmt, len(items)), content)
}
