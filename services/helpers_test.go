package services

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tablehub/database"
	"github.com/yeremiapane/tablehub/models"
)

var baseTime = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Broadcast(event string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *recordingAudit) Record(entry models.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

type testEnv struct {
	store       *database.Store
	clock       *fakeClock
	notifier    *recordingNotifier
	audit       *recordingAudit
	registry    *TableRegistry
	queue       *MoveQueue
	coordinator *MigrationCoordinator
	sessions    *SessionService
	hook        *test.Hook
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log, hook := test.NewNullLogger()
	env := &testEnv{
		store:    database.NewStore(db),
		clock:    &fakeClock{now: baseTime},
		notifier: &recordingNotifier{},
		audit:    &recordingAudit{},
		hook:     hook,
	}
	env.registry = NewTableRegistry(env.store, env.notifier, env.audit, log).WithClock(env.clock.Now)
	env.queue = NewMoveQueue(env.store, env.notifier, env.audit, log).WithClock(env.clock.Now)
	env.coordinator = NewMigrationCoordinator(env.store, env.queue, env.notifier, env.audit, log).WithClock(env.clock.Now)
	env.sessions = NewSessionService(env.store, env.notifier, env.audit, log).WithClock(env.clock.Now)
	return env
}

// createTables provisions n timed tables numbered 1..n.
func (e *testEnv) createTables(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := e.registry.Create(context.Background(), strconv.Itoa(i), models.TableKindTimed)
		require.NoError(t, err)
	}
}

func (e *testEnv) start(t *testing.T, id uint, rate int64) *TableSnapshot {
	t.Helper()
	snap, err := e.registry.Start(context.Background(), id, StartRequest{Rate: decimal.NewFromInt(rate)})
	require.NoError(t, err)
	return snap
}

func (e *testEnv) addItem(t *testing.T, tableID uint, name string) *models.OrderItem {
	t.Helper()
	item, err := e.sessions.AddItem(context.Background(), tableID, ItemInput{
		Name:     name,
		Quantity: 1,
		Price:    decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) table(t *testing.T, id uint) *models.Table {
	t.Helper()
	table, err := e.store.Repos().Tables.Get(context.Background(), id)
	require.NoError(t, err)
	return table
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
