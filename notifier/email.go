// notifier/email.go
package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/models"
)

// sendFunc is the SMTP transport seam; swapped out in tests.
type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier delivers digests over SMTP to the owner's registered address.
type EmailNotifier struct {
	send sendFunc
}

// NewEmailNotifier creates the production email channel.
func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{send: sendMail}
}

// Notify renders the digest and hands it to the SMTP transport. Any
// transport error is reported as ErrDeliveryFailed so the caller leaves the
// box's last_checked_at marker alone and retries next cycle.
func (n *EmailNotifier) Notify(ctx context.Context, owner models.User, bbox models.BoundingBox, records []models.DatasetRecord) error {
	if owner.Email == "" {
		return fmt.Errorf("user %d has no email address", owner.ID)
	}

	htmlBody, err := RenderDigestHTML(bbox, records)
	if err != nil {
		return err
	}
	textBody, err := DigestToText(htmlBody)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("There is new NOAA data available for bbox #%d!", bbox.ID)
	msg, err := buildMessage(config.AppConfig.SMTP.From, owner.Email, subject, textBody, htmlBody)
	if err != nil {
		return err
	}

	cfg := config.AppConfig.SMTP
	addr := cfg.Host + ":" + cfg.Port
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	if err := n.send(ctx, addr, auth, cfg.From, []string{owner.Email}, msg); err != nil {
		log.Printf("ERROR Notifier: Failed to send email to %s for bbox %d: %v", owner.Email, bbox.ID, err)
		return fmt.Errorf("%w: smtp send to %s: %v", ErrDeliveryFailed, owner.Email, err)
	}

	log.Printf("Notifier: Sent email digest to %s for bbox %d (%d records).\n", owner.Email, bbox.ID, len(records))
	return nil
}

// sendMail runs the SMTP conversation under the caller's context.
// smtp.SendMail has no deadline support, so a stalled server would block the
// sequential poll cycle indefinitely; dialing with DialContext and pinning
// the connection deadline to the context bounds the whole exchange.
func sendMail(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("bad smtp address %q: %w", addr, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer conn.Close()

	// The deadline covers the greeting onward, not just the dial; a server
	// that accepts and then goes silent still times out.
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set smtp deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data stream: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize message: %w", err)
	}
	return client.Quit()
}

// buildMessage assembles a multipart/alternative message with text and HTML
// parts.
func buildMessage(from, to, subject, textBody, htmlBody string) ([]byte, error) {
	var buf strings.Builder
	mixed := multipart.NewWriter(&buf)

	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n"+
			"Content-Type: multipart/alternative; boundary=%s\r\n\r\n",
		from, to, subject, mixed.Boundary())

	textPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(textBody)); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}

	htmlPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create html part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("failed to write html part: %w", err)
	}

	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	return []byte(headers + buf.String()), nil
}
