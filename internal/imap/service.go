// Package imap reads the most recent messages of a mailbox over IMAP.
//
// A Session moves through Unauthenticated, Authenticated, InboxSelected,
// Reading and Closed in that order; calling an operation from any other
// state returns ErrInvalidState.
package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"mailctl/internal/config"
)

var (
	ErrAuthentication = errors.New("incorrect credentials")
	ErrInvalidState   = errors.New("invalid session state")
)

// Client is the subset of the go-imap client the session needs.
type Client interface {
	Login(username, password string) error
	Logout() error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Close() error
}

// DialFunc opens an implicit-TLS connection to addr.
type DialFunc func(host, addr string) (Client, error)

func DialTLS(host, addr string) (Client, error) {
	c, err := imapclient.DialTLS(addr, &tls.Config{ServerName: host})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateInboxSelected
	StateReading
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateInboxSelected:
		return "inbox selected"
	case StateReading:
		return "reading"
	case StateClosed:
		return "closed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

type Session struct {
	Port    int
	Mailbox string
	Dial    DialFunc
	Logger  *slog.Logger

	client Client
	state  State
	total  uint32
}

func NewSession(cfg config.IMAPConfig, logger *slog.Logger) *Session {
	return &Session{
		Port:    cfg.Port,
		Mailbox: cfg.Mailbox,
		Dial:    DialTLS,
		Logger:  logger,
	}
}

func (s *Session) State() State {
	return s.state
}

// Login connects to host and authenticates. On failure the session stays
// unauthenticated and may be retried.
func (s *Session) Login(creds config.Credentials, host string) error {
	if err := s.expect(StateUnauthenticated); err != nil {
		return err
	}

	port := s.Port
	if port == 0 {
		port = 993
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	logger := s.logger().With("addr", addr, "user", creds.Email)

	dial := s.Dial
	if dial == nil {
		dial = DialTLS
	}
	logger.Debug("connecting to imap server")
	c, err := dial(host, addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	if err := c.Login(creds.Email, creds.Password); err != nil {
		_ = c.Logout()
		logger.Warn("imap login rejected", "error", err)
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	logger.Info("logged in")
	s.client = c
	s.state = StateAuthenticated
	return nil
}

// SelectInbox opens the configured mailbox and returns its message count.
func (s *Session) SelectInbox() (uint32, error) {
	if err := s.expect(StateAuthenticated); err != nil {
		return 0, err
	}
	mailbox := s.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	status, err := s.client.Select(mailbox, false)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", mailbox, err)
	}
	s.total = status.Messages
	s.state = StateInboxSelected
	s.logger().Debug("mailbox selected", "mailbox", mailbox, "messages", s.total)
	return s.total, nil
}

// RecentSeqNums returns the sequence numbers of the k most recent of n
// messages, newest first. Numbers below 1 are left out.
func RecentSeqNums(n uint32, k int) []uint32 {
	if k <= 0 || n == 0 {
		return nil
	}
	if uint64(k) > uint64(n) {
		k = int(n)
	}
	seqs := make([]uint32, 0, k)
	for i := 0; i < k; i++ {
		seqs = append(seqs, n-uint32(i))
	}
	return seqs
}

// FetchRecent fetches the k most recent messages one at a time, newest
// first, handing each raw message to fn before fetching the next.
func (s *Session) FetchRecent(ctx context.Context, k int, fn func(seq uint32, raw []byte) error) error {
	if err := s.expect(StateInboxSelected); err != nil {
		return err
	}
	s.state = StateReading

	for _, seq := range RecentSeqNums(s.total, k) {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := s.fetch(seq)
		if err != nil {
			return err
		}
		if err := fn(seq, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) fetch(seq uint32) ([]byte, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seq)
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem()}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, items, ch)
	}()
	var msg *imap.Message
	for m := range ch {
		if msg == nil {
			msg = m
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch %d: %w", seq, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", seq)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message %d body not available", seq)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read message %d: %w", seq, err)
	}
	s.logger().Debug("message fetched", "seq", seq, "bytes", len(raw))
	return raw, nil
}

// Close closes the selected mailbox, if any, and logs out.
func (s *Session) Close() error {
	switch s.state {
	case StateUnauthenticated, StateClosed:
		return fmt.Errorf("%w: close while %s", ErrInvalidState, s.state)
	}

	var closeErr error
	if s.state == StateInboxSelected || s.state == StateReading {
		closeErr = s.client.Close()
	}
	logoutErr := s.client.Logout()
	s.state = StateClosed
	s.client = nil
	s.logger().Debug("session closed")

	if closeErr != nil {
		return fmt.Errorf("close mailbox: %w", closeErr)
	}
	if logoutErr != nil {
		return fmt.Errorf("logout: %w", logoutErr)
	}
	return nil
}

func (s *Session) expect(want State) error {
	if s.state != want {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, s.state, want)
	}
	return nil
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
