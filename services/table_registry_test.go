package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/realtime"
)

func TestTableRegistry_StartStop(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	snap := env.start(t, 1, 10)
	assert.Equal(t, models.TableStatusOccupied, snap.Status)
	assert.True(t, snap.LightOn)
	require.NotNil(t, snap.CurrentSessionID)
	sessionID := *snap.CurrentSessionID

	env.clock.Advance(90 * time.Minute)

	result, err := env.registry.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 90, result.RentalMinutes)
	assert.Equal(t, "15.00", result.TotalCost.StringFixed(2))
	assert.Equal(t, models.TableStatusFree, result.Table.Status)

	table := env.table(t, 1)
	assert.Equal(t, models.TableStatusFree, table.Status)
	assert.Nil(t, table.StartedAt)
	assert.Nil(t, table.CurrentSessionID)
	assert.True(t, table.ServiceCharge.IsZero())
	assert.False(t, table.LightOn)

	session, err := env.store.Repos().Sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, session.ClosedAt)
	assert.True(t, session.ClosedAt.Equal(baseTime.Add(90*time.Minute)))

	assert.Equal(t, []string{ActionTableCreate, ActionTableStart, ActionTableStop}, env.audit.Actions())
	assert.Contains(t, env.notifier.Events(), realtime.EventTableUpdate)
}

func TestTableRegistry_StartRoundsMoney(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	snap, err := env.registry.Start(ctx, 1, StartRequest{Rate: money("10.005"), ServiceCharge: money("1.005")})
	require.NoError(t, err)
	assert.Equal(t, "10.01", snap.HourlyRate.String())
	assert.Equal(t, "1.01", snap.ServiceCharge.String())
	assert.Equal(t, "1.01", snap.Charge.String())

	result, err := env.registry.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RentalMinutes)
	assert.True(t, result.TotalCost.Equal(money("1.01")), result.TotalCost.String())
	assert.Equal(t, result.TotalCost.String(), result.TotalCost.Round(2).String())
}

func TestTableRegistry_ImmediateStopBillsServiceChargeOnly(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	_, err := env.registry.Start(ctx, 1, StartRequest{Rate: money("12"), ServiceCharge: money("4.20")})
	require.NoError(t, err)
	_, err = env.registry.AddServiceCharge(ctx, 1, money("0.80"))
	require.NoError(t, err)

	accrued := env.table(t, 1).ServiceCharge
	result, err := env.registry.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RentalMinutes)
	assert.True(t, result.TotalCost.Equal(accrued), result.TotalCost.String())
	assert.True(t, result.TotalCost.Equal(money("5")), result.TotalCost.String())
}

func TestTableRegistry_InvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 2)
	ctx := context.Background()

	_, err := env.registry.Stop(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotOccupied)

	_, err = env.registry.Pause(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotOccupied)

	_, err = env.registry.Resume(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotOccupied)

	_, err = env.registry.Settle(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotOccupied)

	env.start(t, 1, 10)
	_, err = env.registry.Start(ctx, 1, StartRequest{Rate: money("10")})
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = env.registry.Resume(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = env.registry.Pause(ctx, 1)
	require.NoError(t, err)
	_, err = env.registry.Pause(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = env.registry.Start(ctx, 99, StartRequest{Rate: money("10")})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = env.registry.Start(ctx, 2, StartRequest{Rate: money("-1")})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	table := env.table(t, 2)
	assert.Equal(t, models.TableStatusFree, table.Status)
}

func TestTableRegistry_PauseFreezesCharge(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	env.start(t, 1, 10)
	env.clock.Advance(30 * time.Minute)

	paused, err := env.registry.Pause(ctx, 1)
	require.NoError(t, err)
	assert.True(t, paused.Paused)
	assert.Equal(t, "5.00", paused.FrozenCharge.StringFixed(2))

	env.clock.Advance(2 * time.Hour)
	snap, err := env.registry.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "5.00", snap.Charge.StringFixed(2))

	resumed, err := env.registry.Resume(ctx, 1)
	require.NoError(t, err)
	assert.False(t, resumed.Paused)
	assert.Equal(t, "5.00", resumed.Charge.StringFixed(2))

	env.clock.Advance(30 * time.Minute)
	snap, err = env.registry.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.00", snap.Charge.StringFixed(2))
	assert.Equal(t, 60, snap.ElapsedMinutes)
}

func TestTableRegistry_ResumeKeepsRemainingLimit(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	limit := 60
	_, err := env.registry.Start(ctx, 1, StartRequest{Rate: money("10"), LimitMinutes: &limit})
	require.NoError(t, err)

	env.clock.Advance(20 * time.Minute)
	_, err = env.registry.Pause(ctx, 1)
	require.NoError(t, err)

	env.clock.Advance(15 * time.Minute)
	_, err = env.registry.Resume(ctx, 1)
	require.NoError(t, err)

	table := env.table(t, 1)
	require.NotNil(t, table.LimitEnd)
	assert.True(t, table.LimitEnd.Equal(baseTime.Add(75*time.Minute)))

	env.clock.Advance(3 * time.Hour)
	snap, err := env.registry.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.00", snap.Charge.StringFixed(2))
}

func TestTableRegistry_SettleFixesTheBill(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	env.start(t, 1, 10)
	env.clock.Advance(time.Hour)

	_, err := env.registry.AddServiceCharge(ctx, 1, money("2.5"))
	require.NoError(t, err)

	settling, err := env.registry.Settle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusSettling, settling.Status)
	assert.Equal(t, "12.50", settling.Charge.StringFixed(2))

	_, err = env.registry.Settle(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = env.registry.Pause(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotOccupied)

	env.clock.Advance(time.Hour)
	result, err := env.registry.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "12.50", result.TotalCost.StringFixed(2))
	assert.Equal(t, 60, result.RentalMinutes)
}

func TestTableRegistry_SettlePausedTable(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)
	ctx := context.Background()

	env.start(t, 1, 10)
	env.clock.Advance(30 * time.Minute)
	_, err := env.registry.Pause(ctx, 1)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	settling, err := env.registry.Settle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, settling.Paused)
	assert.Equal(t, "5.00", settling.Charge.StringFixed(2))
}

func TestTableRegistry_LightAndCleaning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.Create(ctx, "T1", models.TableKindTimed)
	require.NoError(t, err)
	_, err = env.registry.Create(ctx, "F1", models.TableKindFree)
	require.NoError(t, err)

	snap, err := env.registry.SetLight(ctx, 1, true)
	require.NoError(t, err)
	assert.True(t, snap.LightOn)

	_, err = env.registry.SetLight(ctx, 2, true)
	assert.ErrorIs(t, err, errs.ErrLightNotSupported)

	snap, err = env.registry.EnterCleaning(ctx, 2, 10)
	require.NoError(t, err)
	require.NotNil(t, snap.CleaningUntil)
	assert.True(t, snap.CleaningUntil.Equal(baseTime.Add(10*time.Minute)))
	assert.Equal(t, models.TableStatusFree, snap.Status)

	_, err = env.registry.EnterCleaning(ctx, 2, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestTableRegistry_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.Create(ctx, "", models.TableKindTimed)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = env.registry.Create(ctx, "A1", models.TableKind("pool"))
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	snap, err := env.registry.Create(ctx, "A1", models.TableKindFlatRate)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusFree, snap.Status)
	assert.Equal(t, models.TableKindFlatRate, snap.Kind)
}

func TestTableRegistry_Seed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.registry.Seed(ctx, SeedPlan{Timed: 2, FlatRate: 1, Free: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	tables, err := env.registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 4)
	assert.Equal(t, "1", tables[0].TableNumber)
	assert.Equal(t, models.TableKindTimed, tables[1].Kind)
	assert.Equal(t, models.TableKindFlatRate, tables[2].Kind)
	assert.Equal(t, models.TableKindFree, tables[3].Kind)

	created, err = env.registry.Seed(ctx, SeedPlan{Timed: 5})
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestTableRegistry_RecordsActor(t *testing.T) {
	env := newTestEnv(t)
	env.createTables(t, 1)

	ctx := WithActor(context.Background(), 42)
	_, err := env.registry.Start(ctx, 1, StartRequest{Rate: money("10")})
	require.NoError(t, err)

	last := env.audit.entries[len(env.audit.entries)-1]
	require.NotNil(t, last.EmployeeID)
	assert.Equal(t, uint(42), *last.EmployeeID)
	assert.Equal(t, ActionTableStart, last.Action)
}
