package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/catalog"
	"github.com/paulexconde/together/internal/database"
	"github.com/stretchr/testify/require"
)

var (
	alice = Participant{ID: "alice", Name: "Alice"}
	bob   = Participant{ID: "bob", Name: "Bob"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) CheckinSubmitted(participant, date string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, participant+"@"+date)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type testEnv struct {
	db        *sqlx.DB
	pair      Pair
	clock     *fakeClock
	calendar  Calendar
	questions QuestionBank
	store     CheckinStore
	configs   ConfigStore
	notifier  *recordingNotifier
	checkins  CheckinService
	analytics AnalyticsService
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "together.sqlite") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := database.Open(database.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// newTestEnv wires the services over a fresh database. The clock starts at
// 2026-10-18 21:30 UTC, a Sunday.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := openTestDB(t)
	pair, err := NewPair(alice, bob)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, time.October, 18, 21, 30, 0, 0, time.UTC)}

	env := &testEnv{
		db:       db,
		pair:     pair,
		clock:    clock,
		calendar: NewCalendar(clock.Now, time.UTC),
		notifier: &recordingNotifier{},
	}
	env.questions = NewQuestionBank(db)
	env.store = NewCheckinStore(db, pair, clock.Now)
	env.configs = NewConfigStore(db)
	env.checkins = NewCheckinService(pair, env.calendar, env.questions, env.store, env.configs, env.notifier)
	env.analytics = NewAnalyticsService(pair, env.calendar, env.store)

	return env
}

func (e *testEnv) seed(t *testing.T, entries ...catalog.Entry) {
	t.Helper()

	if len(entries) == 0 {
		entries = []catalog.Entry{
			{Text: "What made you smile today?"},
			{Text: "How did you sleep?", Options: []string{"Badly", "Fine", "Great"}},
			{Text: "What are you looking forward to?"},
		}
	}
	_, err := e.questions.Seed(context.Background(), entries)
	require.NoError(t, err)
}

// backfill writes a check-in for a past day straight through the store.
func (e *testEnv) backfill(t *testing.T, participant string, daysAgo, mood int) {
	t.Helper()

	day := e.calendar.Today().AddDate(0, 0, -daysAgo)
	q, err := e.questions.QuestionForDate(context.Background(), day)
	require.NoError(t, err)

	_, err = e.store.Create(context.Background(), participant, FormatDay(day), mood, q.ID, "answer from "+participant)
	require.NoError(t, err)
}

func ptr(v int) *int { return &v }
