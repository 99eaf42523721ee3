package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/model"
)

// compile-time check that *SMTPClient implements Client
var _ Client = (*SMTPClient)(nil)

// DefaultTimeout bounds one delivery when ctx carries no deadline.
const DefaultTimeout = 10 * time.Second

// SMTPClient relays over plain SMTP without authentication or TLS, the way
// a local MailHog expects.
type SMTPClient struct {
	addr    string
	from    mail.Address
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSMTPClient returns a client for host:port sending as from. from must be
// a valid RFC 5322 address ("Name <a@b>" or "a@b").
func NewSMTPClient(host string, port int, from string, logger *slog.Logger) (*SMTPClient, error) {
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("mail: parsing sender %q: %w", from, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPClient{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		from:    *sender,
		timeout: DefaultTimeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Send delivers content to to. Every failure is an EmailClient error; the
// recipient address never appears in its detail.
func (c *SMTPClient) Send(ctx context.Context, to model.Email, content Content) error {
	rcpt, err := mail.ParseAddress(to.Expose())
	if err != nil {
		return apperror.EmailClient("Could not parse recipient mailbox")
	}
	msg := c.buildMessage(rcpt, content)

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return apperror.EmailClient("Failed to connect to SMTP server: %v", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = c.now().Add(c.timeout)
	}
	_ = conn.SetDeadline(deadline)

	host, _, _ := net.SplitHostPort(c.addr)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return apperror.EmailClient("SMTP handshake failed: %v", err)
	}
	defer client.Close()

	if err := client.Mail(c.from.Address); err != nil {
		return apperror.EmailClient("SMTP MAIL FROM rejected: %v", err)
	}
	if err := client.Rcpt(rcpt.Address); err != nil {
		return apperror.EmailClient("SMTP RCPT TO rejected: %v", err)
	}
	w, err := client.Data()
	if err != nil {
		return apperror.EmailClient("SMTP DATA rejected: %v", err)
	}
	if _, err := w.Write(msg); err != nil {
		return apperror.EmailClient("Failed to write message: %v", err)
	}
	if err := w.Close(); err != nil {
		return apperror.EmailClient("SMTP server rejected message: %v", err)
	}
	if err := client.Quit(); err != nil {
		c.logger.Debug("smtp quit failed", slog.Any("error", err))
	}

	c.logger.Debug("email sent", slog.String("subject", content.Subject))
	return nil
}

func (c *SMTPClient) buildMessage(to *mail.Address, content Content) []byte {
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", c.from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", content.Subject))
	header("Date", c.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(content.HTML)
	b.WriteString("\r\n")
	return b.Bytes()
}
