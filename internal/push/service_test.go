package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/database"
	"github.com/paulexconde/together/internal/models"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	endpoint string
	msg      Message
}

// fakeSender answers with a fixed status per endpoint, 201 otherwise.
type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	failures map[string]error
	sent     []sent
}

func (s *fakeSender) Send(_ context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return 0, err
	}
	s.sent = append(s.sent, sent{endpoint: sub.Endpoint, msg: msg})

	if err := s.failures[sub.Endpoint]; err != nil {
		return 0, err
	}
	if status, ok := s.statuses[sub.Endpoint]; ok {
		return status, nil
	}
	return http.StatusCreated, nil
}

func (s *fakeSender) endpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		out = append(out, m.endpoint)
	}
	return out
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "push.sqlite") + "?_foreign_keys=on"
	db, err := database.Open(database.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func countSubscriptions(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM push_subscriptions"))
	return n
}

func TestSubscribe_Validation(t *testing.T) {
	svc := NewService(openTestDB(t), &fakeSender{})
	ctx := context.Background()

	tests := []struct {
		name                   string
		endpoint, p256dh, auth string
		field                  string
	}{
		{"missing endpoint", " ", "key", "secret", "endpoint"},
		{"missing p256dh", "https://push.example/1", "", "secret", "keys.p256dh"},
		{"missing auth", "https://push.example/1", "key", "", "keys.auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Subscribe(ctx, "alice", tt.endpoint, tt.p256dh, tt.auth)
			require.Error(t, err)
			assert.True(t, fault.IsClientError(err))
			assert.Equal(t, tt.field, fault.FieldOf(err))
		})
	}
}

func TestSubscribe_SameEndpointRefreshesKeys(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeSender{})
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "alice", "https://push.example/1", "key-1", "auth-1"))
	require.NoError(t, svc.Subscribe(ctx, "bob", "https://push.example/1", "key-2", "auth-2"))

	assert.Equal(t, 1, countSubscriptions(t, db))

	var sub models.PushSubscription
	require.NoError(t, db.Get(&sub, "SELECT "+subscriptionColumns+" FROM push_subscriptions"))
	assert.Equal(t, "bob", sub.ParticipantID)
	assert.Equal(t, "key-2", sub.P256dh)
	assert.Equal(t, "auth-2", sub.Auth)

	require.NoError(t, svc.Unsubscribe(ctx, "https://push.example/1"))
	assert.Zero(t, countSubscriptions(t, db))
}

func TestSendToAllExcept(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{}
	svc := NewService(db, sender)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "alice", "https://push.example/a", "k", "a"))
	require.NoError(t, svc.Subscribe(ctx, "bob", "https://push.example/b1", "k", "a"))
	require.NoError(t, svc.Subscribe(ctx, "bob", "https://push.example/b2", "k", "a"))

	msg := Message{Title: "Partner Checked In", Body: "hi", URL: "/checkin"}
	require.NoError(t, svc.SendToAllExcept(ctx, "alice", msg))

	assert.Equal(t, []string{"https://push.example/b1", "https://push.example/b2"}, sender.endpoints())
	assert.Equal(t, msg, sender.sent[0].msg)
}

func TestSendToParticipants_RemovesExpired(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{
		statuses: map[string]int{"https://push.example/gone": http.StatusGone},
		failures: map[string]error{"https://push.example/flaky": errors.New("connection reset")},
	}
	svc := NewService(db, sender, WithRetries(3, time.Millisecond))
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "alice", "https://push.example/gone", "k", "a"))
	require.NoError(t, svc.Subscribe(ctx, "alice", "https://push.example/flaky", "k", "a"))
	require.NoError(t, svc.Subscribe(ctx, "bob", "https://push.example/ok", "k", "a"))
	require.NoError(t, svc.Subscribe(ctx, "carol", "https://push.example/other", "k", "a"))

	err := svc.SendToParticipants(ctx, []string{"alice", "bob"}, Message{Title: "Evening Check-in"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// only the failing subscription is retried
	assert.Equal(t, []string{
		"https://push.example/gone",
		"https://push.example/flaky",
		"https://push.example/flaky",
		"https://push.example/flaky",
		"https://push.example/ok",
	}, sender.endpoints())

	// the expired one is gone, the failing one is kept for next time
	assert.Equal(t, 3, countSubscriptions(t, db))
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM push_subscriptions WHERE endpoint = ?", "https://push.example/gone"))
	assert.Zero(t, n)
}

func TestSendToParticipants_RetriesOnlyTransientFailures(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{statuses: map[string]int{
		"https://push.example/busy":    http.StatusServiceUnavailable,
		"https://push.example/too-big": http.StatusRequestEntityTooLarge,
		"https://push.example/healthy": http.StatusCreated,
	}}
	svc := NewService(db, sender, WithRetries(2, 0))
	ctx := context.Background()

	for _, endpoint := range []string{"https://push.example/busy", "https://push.example/too-big", "https://push.example/healthy"} {
		require.NoError(t, svc.Subscribe(ctx, "bob", endpoint, "k", "a"))
	}

	err := svc.SendToAllExcept(ctx, "alice", Message{Title: "Partner Checked In"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
	assert.Contains(t, err.Error(), "unexpected status 413")

	assert.Equal(t, []string{
		"https://push.example/busy",
		"https://push.example/busy",
		"https://push.example/too-big",
		"https://push.example/healthy",
	}, sender.endpoints())
}

func TestSendToParticipants_NoSubscribers(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(openTestDB(t), sender)

	require.NoError(t, svc.SendToParticipants(context.Background(), nil, Message{}))
	require.NoError(t, svc.SendToParticipants(context.Background(), []string{"alice"}, Message{}))
	assert.Empty(t, sender.endpoints())
}

func TestVAPIDConfig_Enabled(t *testing.T) {
	assert.False(t, VAPIDConfig{}.Enabled())
	assert.False(t, VAPIDConfig{PublicKey: "pub"}.Enabled())
	assert.True(t, VAPIDConfig{PublicKey: "pub", PrivateKey: "priv"}.Enabled())
}
