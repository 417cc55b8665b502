package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
)

const defaultSMTPPort = 465

// Deliverer is the part of the SMTP client the mailer needs.
type Deliverer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends report files as attachments to a fixed recipient list.
type Mailer struct {
	Client     Deliverer
	From       string
	Recipients []string
	Logger     *slog.Logger
}

// NewMailer builds an SMTP client from report.smtp; the password is read from
// the EMAIL_PASSWORD env variable. Port 465 uses implicit TLS, any other port
// requires STARTTLS.
func NewMailer(cfg *config.Config, logger *slog.Logger) (*Mailer, error) {
	rc := cfg.Report
	if rc.SMTP.Host == "" {
		return nil, errors.New("report.smtp.host is not set")
	}
	if rc.From == "" {
		return nil, errors.New("report.from is not set")
	}
	if len(rc.Recipients) == 0 {
		return nil, errors.New("report.recipients is empty")
	}
	password := os.Getenv("EMAIL_PASSWORD")
	if password == "" {
		return nil, errors.New("EMAIL_PASSWORD env variable is not set")
	}

	port := rc.SMTP.Port
	if port == 0 {
		port = defaultSMTPPort
	}
	username := rc.SMTP.Username
	if username == "" {
		username = rc.From
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	}
	if port == defaultSMTPPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(rc.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &Mailer{Client: client, From: rc.From, Recipients: rc.Recipients, Logger: logger}, nil
}

func (m *Mailer) message(r *Report) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender %s: %w", m.From, err)
	}
	if err := msg.To(m.Recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject("Automated " + r.Period.Title())
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Attached is the %s for your review.\n\nPeriod: %s to %s\nRows: %d\n",
		r.Period.Title(),
		r.Period.Start.Format("2006-01-02"), r.Period.End.AddDate(0, 0, -1).Format("2006-01-02"),
		r.Rows,
	))
	msg.AttachFile(r.Path)
	return msg, nil
}

// Send mails the report file to every recipient.
func (m *Mailer) Send(ctx context.Context, r *Report) error {
	msg, err := m.message(r)
	if err != nil {
		return err
	}
	if err := m.Client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", r.Period.Title(), err)
	}
	m.Logger.Info(fmt.Sprintf("Email sent successfully to %s", strings.Join(m.Recipients, ", ")), "report", r.Path)
	return nil
}
