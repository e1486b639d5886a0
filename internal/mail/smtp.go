// Package mail delivers account emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	netmail "net/mail"
	"net/smtp"
	"time"
)

// implicitTLSPort is the submissions port, where TLS starts before the SMTP greeting.
const implicitTLSPort = "465"

// SMTPConfig holds the relay coordinates. Username may be empty for relays
// that accept unauthenticated submissions.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends plain text emails through an SMTP relay.
type SMTPMailer struct {
	host string
	addr string
	tls  bool
	from *netmail.Address
	auth smtp.Auth
	now  func() time.Time

	// send is swapped in tests.
	send func(ctx context.Context, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", cfg.From, err)
	}

	m := &SMTPMailer{
		host: cfg.Host,
		addr: net.JoinHostPort(cfg.Host, cfg.Port),
		tls:  cfg.Port == implicitTLSPort,
		from: from,
		now:  time.Now,
	}
	if cfg.Username != "" {
		// PlainAuth refuses to send credentials over an unencrypted link to a remote host.
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	m.send = m.deliver
	return m, nil
}

// SendEmail implements services.Mailer.
func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, body, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt, err := netmail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg, err := m.compose(rcpt, subject, body, link)
	if err != nil {
		return err
	}
	if err := m.send(ctx, m.from.Address, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("send email via %s: %w", m.addr, err)
	}
	return nil
}

func (m *SMTPMailer) compose(rcpt *netmail.Address, subject, body, link string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", rcpt.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := fmt.Fprintf(qp, "%s\r\n\r\n%s\r\n", body, link); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return buf.Bytes(), nil
}

// deliver runs one SMTP transaction, upgrading to TLS when the relay offers it.
func (m *SMTPMailer) deliver(ctx context.Context, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	tlsConfig := &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}
	if m.tls {
		conn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if !m.tls {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.auth != nil {
		if err := c.Auth(m.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end message: %w", err)
	}
	return c.Quit()
}
