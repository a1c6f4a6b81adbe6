package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/resubmit/domain"
)

//go:embed templates/*.tmpl
var mailTemplates embed.FS

var mails = template.Must(template.ParseFS(mailTemplates, "templates/*.tmpl"))

// MailConfig is the outgoing mail server
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// Timeout bounds dialing and the whole SMTP exchange; <= 0 means DefaultMailTimeout
	Timeout time.Duration

	// AdminURL is linked from every mail; empty omits the link
	AdminURL string
}

// MailConfigFromEnv reads SMTP_* from root
func MailConfigFromEnv(root config.Conf, adminURL string) MailConfig {
	c := root.Prefix("SMTP_")
	return MailConfig{
		Host:     c.MayString("HOST", ""),
		Port:     c.MayInt("PORT", 587),
		Username: c.MayString("USERNAME", ""),
		Password: c.MayString("PASSWORD", ""),
		From:     c.MayString("FROM", ""),
		Timeout:  c.MayDuration("TIMEOUT", DefaultMailTimeout),
		AdminURL: adminURL,
	}
}

// DefaultMailTimeout bounds one notification mail, dial included
const DefaultMailTimeout = 10 * time.Second

// Configured reports whether mail can be sent at all
func (c MailConfig) Configured() bool { return c.Host != "" && c.From != "" }

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailNotifier mails the configured addresses about queued comments and finished batches
type MailNotifier struct {
	cfg   MailConfig
	store *ConfigStore
	log   logger.Logger
	send  sendFunc
}

var _ domain.Notifier = (*MailNotifier)(nil)

// NewMailNotifier returns a notifier reading its recipients from store
func NewMailNotifier(cfg MailConfig, store *ConfigStore, log logger.Logger) *MailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultMailTimeout
	}
	return &MailNotifier{cfg: cfg, store: store, log: log, send: sendMailWithin(cfg.Timeout)}
}

// sendMailWithin is smtp.SendMail with a deadline on the connection
func sendMailWithin(timeout time.Duration) sendFunc {
	return func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return err
		}
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return err
		}
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return err
		}
		c, err := smtp.NewClient(conn, host)
		if err != nil {
			_ = conn.Close()
			return err
		}
		defer c.Close()

		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return err
			}
		}
		if a != nil {
			if ok, _ := c.Extension("AUTH"); !ok {
				return fmt.Errorf("smtp: server %s does not support AUTH", host)
			}
			if err := c.Auth(a); err != nil {
				return err
			}
		}
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, rcpt := range to {
			if err := c.Rcpt(rcpt); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := w.Write(msg); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		return c.Quit()
	}
}

type commentModel struct {
	Comment domain.QueuedComment
	URL     string
}

type resubmitModel struct {
	IssueTracker string
	Removed      int
	Requeued     int
	URL          string
}

// NotifyComment announces that c was queued
func (n *MailNotifier) NotifyComment(ctx context.Context, c domain.QueuedComment) {
	subject := fmt.Sprintf("%s: comment for %s queued for resubmission", c.IssueTracker, c.IssueKey)
	n.notify(ctx, "comment.tmpl", subject, commentModel{Comment: c, URL: n.cfg.AdminURL})
}

// NotifyResubmit reports the outcome of a batch
func (n *MailNotifier) NotifyResubmit(ctx context.Context, tracker string, removed, requeued int) {
	subject := fmt.Sprintf("%s: resubmit finished, %d removed and %d requeued", tracker, removed, requeued)
	n.notify(ctx, "resubmit.tmpl", subject, resubmitModel{
		IssueTracker: tracker,
		Removed:      removed,
		Requeued:     requeued,
		URL:          n.cfg.AdminURL,
	})
}

func (n *MailNotifier) notify(ctx context.Context, tmpl, subject string, model any) {
	if !n.cfg.Configured() {
		return
	}
	cfg, err := n.store.Get(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("failed to read notification config")
		return
	}
	if len(cfg.Addresses) == 0 {
		return
	}

	var body bytes.Buffer
	if err := mails.ExecuteTemplate(&body, tmpl, model); err != nil {
		n.log.Warn().Err(err).Str("template", tmpl).Msg("failed to render notification")
		return
	}
	msg := n.message(cfg.Addresses, subject, body.Bytes())

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.send(addr, auth, n.cfg.From, cfg.Addresses, msg); err != nil {
		n.log.Warn().Err(err).Strs("to", cfg.Addresses).Msg("failed to send notification")
	}
}

func (n *MailNotifier) message(to []string, subject string, body []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.Write(bytes.ReplaceAll(body, []byte("\n"), []byte("\r\n")))
	return b.Bytes()
}
