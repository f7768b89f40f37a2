// Package mailer delivers password reset emails over SMTP, or only logs them
// when no SMTP host is configured.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const resetSubject = "Password Reset Request"

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string, ttl time.Duration) error
}

// New picks the SMTP mailer when SMTP_HOST is set and the log mailer otherwise.
func New(cfg config.SMTPConfig) (Mailer, error) {
	if !cfg.Enabled() {
		return &LogMailer{}, nil
	}
	return NewSMTPMailer(cfg)
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPMailer struct {
	from        string
	frontendURL string
	client      sender
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.User != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{
		from:        cfg.FromEmail,
		frontendURL: cfg.FrontendURL,
		client:      client,
	}, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string, ttl time.Duration) error {
	text, html, err := renderReset(ResetLink(m.frontendURL, token), ttl)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err = msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err = msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	return m.client.DialAndSendWithContext(ctx, msg)
}

// LogMailer stands in for SMTP in development. It never logs the token.
type LogMailer struct{}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, _ string, ttl time.Duration) error {
	logrus.WithFields(logrus.Fields{
		"to":         to,
		"expires_in": ttl.String(),
	}).Info("SMTP not configured, password reset email not sent")
	return nil
}

// ResetLink builds FRONTEND_URL/reset-password?token=...
func ResetLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

type resetData struct {
	Link    string
	Expires string
}

var resetText = template.Must(template.New("reset_text").Parse(`Hello,

You have requested to reset your password. Please open the link below to reset it:

{{.Link}}

If you did not request this reset, please ignore this email.

This link will expire in {{.Expires}}.

Best regards,
Your Journal App Team
`))

var resetHTML = htmltemplate.Must(htmltemplate.New("reset_html").Parse(`<html>
  <body>
    <p>Hello,</p>
    <p>You have requested to reset your password. Please click the link below to reset it:</p>
    <p><a href="{{.Link}}">Reset Password</a></p>
    <p>If you did not request this reset, please ignore this email.</p>
    <p>This link will expire in {{.Expires}}.</p>
    <p>Best regards,<br>Your Journal App Team</p>
  </body>
</html>
`))

func renderReset(link string, ttl time.Duration) (string, string, error) {
	data := resetData{Link: link, Expires: humanizeDuration(ttl)}

	var text, html bytes.Buffer
	if err := resetText.Execute(&text, data); err != nil {
		return "", "", err
	}
	if err := resetHTML.Execute(&html, data); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
