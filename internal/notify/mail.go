// Package notify e-mails generated report files to a recipient.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/tabular/internal/logging"
)

// Default message text.
const (
	DefaultSubject = "Reportes generados automáticamente"
	DefaultBody    = "Adjunto los reportes generados automáticamente."
)

// ErrDisabled is returned by Send when no credentials are configured.
var ErrDisabled = errors.New("mail notification disabled")

// Attachment is one file carried by a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Mailer sends messages over implicit TLS (SMTPS) with PLAIN auth.
type Mailer struct {
	Host string
	Port int
	User string
	Pass string
	To   []string

	// Timeout bounds dialing when the context has no deadline.
	Timeout time.Duration
}

// Enabled reports whether credentials are configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.User != "" && m.Pass != ""
}

// recipients falls back to the sender when no recipient is configured.
func (m *Mailer) recipients() []string {
	if len(m.To) > 0 {
		return m.To
	}
	return []string{m.User}
}

// SendFiles e-mails the files matching pattern (e.g. "reportes/*.csv").
func (m *Mailer) SendFiles(ctx context.Context, subject, body, pattern string) error {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("match %s: %w", pattern, err)
	}

	atts := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		ct := mime.TypeByExtension(filepath.Ext(p))
		if ct == "" {
			ct = "application/octet-stream"
		}
		atts = append(atts, Attachment{Name: filepath.Base(p), ContentType: ct, Data: data})
	}
	return m.Send(ctx, subject, body, atts)
}

// Send delivers one message with the given attachments.
func (m *Mailer) Send(ctx context.Context, subject, body string, atts []Attachment) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	logger := logging.WithFields(ctx, "smtp_host", m.Host, "attachments", len(atts))

	to := m.recipients()
	msg, err := BuildMessage(m.User, to, subject, body, atts)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: m.Timeout},
		Config:    &tls.Config{ServerName: m.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(smtp.PlainAuth("", m.User, m.Pass, m.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(m.User); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := c.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}

	logger.Info("notification sent", "to", strings.Join(to, ","))
	return nil
}

// BuildMessage renders a multipart/mixed message: a plain text body followed
// by base64 encoded attachments.
func BuildMessage(from string, to []string, subject, body string, atts []Attachment) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(body + "\r\n")); err != nil {
		return nil, err
	}

	for _, a := range atts {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {a.ContentType + "; name=" + strconv.Quote(a.Name)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {"attachment; filename=" + strconv.Quote(a.Name)},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, a.Data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64Lines writes data as base64 wrapped at 76 characters.
func writeBase64Lines(w interface{ Write([]byte) (int, error) }, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}
