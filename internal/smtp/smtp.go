// Package smtp submits a single message over SMTP with STARTTLS.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"mailctl/internal/config"
	"mailctl/internal/email"
)

var ErrStartTLSUnsupported = errors.New("server does not support STARTTLS")

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type Sender struct {
	Port   int
	Dial   DialFunc
	Logger *slog.Logger

	// TLSConfig overrides the STARTTLS configuration. The default verifies
	// the server against the system roots.
	TLSConfig func(host string) *tls.Config
}

func NewSender(cfg config.SMTPConfig, logger *slog.Logger) *Sender {
	dialer := &net.Dialer{}
	return &Sender{
		Port:   cfg.Port,
		Dial:   dialer.DialContext,
		Logger: logger,
	}
}

// Message is an outgoing plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Send connects to host, upgrades with STARTTLS, authenticates as creds and
// transmits msg.
func (s *Sender) Send(ctx context.Context, creds config.Credentials, host string, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("no recipient provided")
	}
	logger := s.logger().With("host", host, "from", creds.Email)

	port := s.Port
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dial := s.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	logger.Debug("dialing smtp server", "addr", addr)
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return fmt.Errorf("ehlo: %w", err)
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return ErrStartTLSUnsupported
	}
	if err := c.StartTLS(s.tlsConfig(host)); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	if err := c.Auth(smtp.PlainAuth("", creds.Email, creds.Password, host)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := c.Mail(creds.Email); err != nil {
		return fmt.Errorf("sender %s: %w", creds.Email, err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("recipient %s: %w", msg.To, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(email.ComposePlain(msg.Subject, msg.Body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data: %w", err)
	}

	logger.Info("message sent", "to", msg.To)
	if err := c.Quit(); err != nil {
		logger.Warn("smtp quit failed after delivery", "error", err)
	}
	return nil
}

func (s *Sender) tlsConfig(host string) *tls.Config {
	if s.TLSConfig != nil {
		return s.TLSConfig(host)
	}
	return &tls.Config{ServerName: host}
}

func (s *Sender) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
