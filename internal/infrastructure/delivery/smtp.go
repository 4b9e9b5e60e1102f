package delivery

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	infraconfig "github.com/bizdocs/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ appdoc.Delivery = (*SMTPDelivery)(nil)

// SMTPDelivery sends messages through an SMTP relay
type SMTPDelivery struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSMTPDelivery creates an SMTP delivery from the mail configuration
func NewSMTPDelivery(cfg *infraconfig.MailConfig, log *zap.Logger) (*SMTPDelivery, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail sender address is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPDelivery{
		host:     cfg.Host,
		port:     port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		timeout:  30 * time.Second,
		now:      time.Now,
		logger:   log,
	}, nil
}

// Send delivers msg to every To and Cc recipient
func (d *SMTPDelivery) Send(ctx context.Context, msg appdoc.Message) error {
	data, err := buildMessage(d.from, msg, d.now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	addr := net.JoinHostPort(d.host, strconv.Itoa(d.port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to mail server %s: %w", addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, d.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if err := d.transmit(client, recipients(msg), data); err != nil {
		return err
	}

	d.logger.Info("Message sent",
		zap.Strings("to", msg.To),
		zap.Int("cc", len(msg.Cc)),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

func (d *SMTPDelivery) transmit(client *smtp.Client, rcpts []string, data []byte) error {
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: d.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if d.username != "" {
		if err := client.Auth(smtp.PlainAuth("", d.username, d.password, d.host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(d.from); err != nil {
		return fmt.Errorf("sender rejected: %w", err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s rejected: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	return client.Quit()
}
