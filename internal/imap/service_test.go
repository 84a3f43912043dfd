package imap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/emersion/go-imap"

	"mailctl/internal/config"
)

type mockClient struct {
	messages   map[uint32][]byte
	total      uint32
	loginErr   error
	fetched    []uint32
	selected   string
	loggedIn   bool
	loggedOut  bool
	closed     bool
	fetchItems []imap.FetchItem
}

func (m *mockClient) Login(username, password string) error {
	if m.loginErr != nil {
		return m.loginErr
	}
	m.loggedIn = true
	return nil
}
func (m *mockClient) Logout() error {
	m.loggedOut = true
	return nil
}
func (m *mockClient) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	m.selected = name
	return &imap.MailboxStatus{Name: name, Messages: m.total}, nil
}
func (m *mockClient) Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	m.fetchItems = items
	seq := seqset.Set[0].Start
	m.fetched = append(m.fetched, seq)
	raw, ok := m.messages[seq]
	if !ok {
		return nil
	}
	ch <- &imap.Message{
		SeqNum: seq,
		Body: map[*imap.BodySectionName]imap.Literal{
			{}: bytes.NewBuffer(raw),
		},
	}
	return nil
}
func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func newMockSession(mock *mockClient) (*Session, *[]string) {
	var dialed []string
	s := &Session{
		Mailbox: "INBOX",
		Dial: func(host, addr string) (Client, error) {
			dialed = append(dialed, addr)
			return mock, nil
		},
	}
	return s, &dialed
}

func mailbox(n uint32) map[uint32][]byte {
	out := make(map[uint32][]byte, n)
	for i := uint32(1); i <= n; i++ {
		out[i] = []byte(fmt.Sprintf("Subject: message %d\r\n\r\nbody %d\r\n", i, i))
	}
	return out
}

func TestRecentSeqNums(t *testing.T) {
	tests := []struct {
		n    uint32
		k    int
		want []uint32
	}{
		{10, 3, []uint32{10, 9, 8}},
		{3, 5, []uint32{3, 2, 1}},
		{1, 1, []uint32{1}},
		{0, 3, nil},
		{5, 0, nil},
	}
	for _, tt := range tests {
		if got := RecentSeqNums(tt.n, tt.k); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("RecentSeqNums(%d, %d) = %v, want %v", tt.n, tt.k, got, tt.want)
		}
	}
}

func TestSessionReadsMostRecentFirst(t *testing.T) {
	mock := &mockClient{messages: mailbox(10), total: 10}
	s, dialed := newMockSession(mock)

	if err := s.Login(config.Credentials{Email: "a@b.co", Password: "pw"}, "imap.b.co"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := (*dialed)[0]; got != "imap.b.co:993" {
		t.Fatalf("expected default port 993, dialed %q", got)
	}
	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State())
	}

	n, err := s.SelectInbox()
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if n != 10 || mock.selected != "INBOX" {
		t.Fatalf("unexpected select result n=%d mailbox=%q", n, mock.selected)
	}

	var bodies []string
	err = s.FetchRecent(context.Background(), 3, func(seq uint32, raw []byte) error {
		bodies = append(bodies, string(raw))
		return nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(mock.fetched, []uint32{10, 9, 8}) {
		t.Fatalf("expected fetches 10,9,8, got %v", mock.fetched)
	}
	if len(bodies) != 3 || bodies[0] != string(mock.messages[10]) {
		t.Fatalf("unexpected bodies %q", bodies)
	}
	if s.State() != StateReading {
		t.Fatalf("expected reading, got %s", s.State())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !mock.closed || !mock.loggedOut {
		t.Fatalf("expected close and logout, got closed=%v loggedOut=%v", mock.closed, mock.loggedOut)
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %s", s.State())
	}
}

func TestSessionLoginRejected(t *testing.T) {
	mock := &mockClient{loginErr: errors.New("NO [AUTHENTICATIONFAILED] invalid")}
	s, _ := newMockSession(mock)

	err := s.Login(config.Credentials{Email: "a@b.co", Password: "bad"}, "imap.b.co")
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if s.State() != StateUnauthenticated {
		t.Fatalf("expected to stay unauthenticated, got %s", s.State())
	}
	if !mock.loggedOut {
		t.Fatalf("expected the rejected connection to be logged out")
	}

	mock.loginErr = nil
	if err := s.Login(config.Credentials{Email: "a@b.co", Password: "good"}, "imap.b.co"); err != nil {
		t.Fatalf("retry login: %v", err)
	}
}

func TestSessionDialFailure(t *testing.T) {
	refused := errors.New("connection refused")
	s := &Session{
		Port: 1993,
		Dial: func(host, addr string) (Client, error) { return nil, refused },
	}
	err := s.Login(config.Credentials{Email: "a@b.co"}, "imap.b.co")
	if !errors.Is(err, refused) || errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestSessionStateGuards(t *testing.T) {
	mock := &mockClient{messages: mailbox(2), total: 2}
	s, _ := newMockSession(mock)

	if _, err := s.SelectInbox(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("select before login: expected ErrInvalidState, got %v", err)
	}
	if err := s.FetchRecent(context.Background(), 1, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("fetch before select: expected ErrInvalidState, got %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("close before login: expected ErrInvalidState, got %v", err)
	}

	if err := s.Login(config.Credentials{}, "imap.b.co"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.Login(config.Credentials{}, "imap.b.co"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second login: expected ErrInvalidState, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if mock.closed {
		t.Fatalf("no mailbox was selected, CLOSE should not be sent")
	}
}

func TestFetchRecentStopsOnCancel(t *testing.T) {
	mock := &mockClient{messages: mailbox(5), total: 5}
	s, _ := newMockSession(mock)
	if err := s.Login(config.Credentials{}, "imap.b.co"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := s.SelectInbox(); err != nil {
		t.Fatalf("select: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := s.FetchRecent(ctx, 5, func(seq uint32, raw []byte) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mock.fetched) != 1 {
		t.Fatalf("expected one fetch before cancellation, got %v", mock.fetched)
	}
}

func TestFetchMissingMessage(t *testing.T) {
	mock := &mockClient{messages: map[uint32][]byte{}, total: 4}
	s, _ := newMockSession(mock)
	if err := s.Login(config.Credentials{}, "imap.b.co"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := s.SelectInbox(); err != nil {
		t.Fatalf("select: %v", err)
	}
	err := s.FetchRecent(context.Background(), 1, func(uint32, []byte) error { return nil })
	if err == nil {
		t.Fatalf("expected error for a message the server did not return")
	}
}
