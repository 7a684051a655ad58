package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when a session is used before Connect.
var ErrNotConnected = errors.New("imap session is not connected")

// Session is a MailSession over IMAP with implicit TLS. Message ids are
// UIDs in the selected folder.
type Session struct {
	address  string
	username string
	password string
	timeout  time.Duration
	logger   *zap.Logger

	client   *imapclient.Client
	selected string
}

// NewSession creates a session for one account. Nothing is dialed until
// Connect. A zero timeout leaves dialing bounded only by the context.
func NewSession(address, username, password string, timeout time.Duration, logger *zap.Logger) *Session {
	return &Session{
		address:  address,
		username: username,
		password: password,
		timeout:  timeout,
		logger:   logger,
	}
}

// Address returns the server address the session dials.
func (s *Session) Address() string {
	return s.address
}

// Connect dials the server and authenticates
func (s *Session) Connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: s.timeout}}
	conn, err := dialer.DialContext(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("connecting to IMAP %s: %w", s.address, err)
	}

	client := imapclient.New(conn, nil)

	if err := client.Login(s.username, s.password).Wait(); err != nil {
		_ = client.Close()
		return fmt.Errorf("authentication failed for %s: %w", s.username, err)
	}

	s.logger.Debug("Connected to IMAP server",
		zap.String("address", s.address),
		zap.String("username", s.username))

	s.client = client
	return nil
}

// ListRecent returns the UIDs of the newest count messages in folder,
// oldest first
func (s *Session) ListRecent(ctx context.Context, folder string, count int) ([]string, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}

	if _, err := s.client.Select(folder, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", folder, err)
	}
	s.selected = folder

	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	return newest(searchData.AllUIDs(), count), nil
}

// Fetch returns the full message with the given UID without marking it seen
func (s *Session) Fetch(ctx context.Context, id string) ([]byte, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}
	if s.selected == "" {
		return nil, errors.New("no folder selected")
	}

	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := s.client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		if err := fetchCmd.Close(); err != nil {
			return nil, fmt.Errorf("fetching message UID %d: %w", uid, err)
		}
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("closing fetch: %w", err)
	}

	return raw, nil
}

// Disconnect logs out and closes the connection. It is safe to call on a
// session that never connected.
func (s *Session) Disconnect() error {
	if s.client == nil {
		return nil
	}

	client := s.client
	s.client = nil
	s.selected = ""

	logoutErr := client.Logout().Wait()
	closeErr := client.Close()
	if logoutErr != nil {
		return fmt.Errorf("logging out: %w", logoutErr)
	}
	return closeErr
}

// newest returns the last count UIDs in ascending order as strings.
func newest(uids []imap.UID, count int) []string {
	sorted := slices.Clone(uids)
	slices.Sort(sorted)
	if count >= 0 && len(sorted) > count {
		sorted = sorted[len(sorted)-count:]
	}

	ids := make([]string, len(sorted))
	for i, uid := range sorted {
		ids[i] = strconv.FormatUint(uint64(uid), 10)
	}
	return ids
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid message id %q", id)
	}
	return imap.UID(n), nil
}
