package imap

import (
	"context"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewest(t *testing.T) {
	uids := []imap.UID{7, 3, 12, 5, 9}

	assert.Equal(t, []string{"7", "9", "12"}, newest(uids, 3))
	assert.Equal(t, []string{"3", "5", "7", "9", "12"}, newest(uids, 10))
	assert.Empty(t, newest(nil, 5))
	assert.Equal(t, []imap.UID{7, 3, 12, 5, 9}, uids)
}

func TestParseUID(t *testing.T) {
	uid, err := parseUID("42")
	require.NoError(t, err)
	assert.Equal(t, imap.UID(42), uid)

	for _, bad := range []string{"", "0", "-1", "abc", "99999999999"} {
		_, err := parseUID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSessionRequiresConnect(t *testing.T) {
	s := NewSession("imap.example.com:993", "me@example.com", "secret", time.Second, zaptest.NewLogger(t))

	_, err := s.ListRecent(context.Background(), "INBOX", 5)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = s.Fetch(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.NoError(t, s.Disconnect())
}

func TestConnectHonorsCanceledContext(t *testing.T) {
	s := NewSession("imap.example.com:993", "me@example.com", "secret", time.Second, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Connect(ctx), context.Canceled)
}
