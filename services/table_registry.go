package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/realtime"
	"github.com/yeremiapane/tablehub/repository"
)

// Audit actions recorded by the registry.
const (
	ActionTableCreate   = "table_create"
	ActionTableStart    = "table_start"
	ActionTableStop     = "table_stop"
	ActionTablePause    = "table_pause"
	ActionTableResume   = "table_resume"
	ActionTableCleaning = "table_cleaning"
	ActionTableLight    = "table_light"
	ActionTableSettle   = "table_settle"
	ActionTableCharge   = "table_charge"
)

type StartRequest struct {
	Rate          decimal.Decimal
	LimitMinutes  *int
	ServiceCharge decimal.Decimal
}

type StopResult struct {
	RentalMinutes int             `json:"rental_minutes"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Table         TableSnapshot   `json:"table"`
}

// TableRegistry owns the table lifecycle. Every operation is one
// transaction over a single table row.
type TableRegistry struct {
	store    repository.Store
	notifier Notifier
	audit    AuditSink
	log      logrus.FieldLogger
	now      Clock
}

func NewTableRegistry(store repository.Store, notifier Notifier, audit AuditSink, log logrus.FieldLogger) *TableRegistry {
	return &TableRegistry{
		store:    store,
		notifier: notifier,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (r *TableRegistry) WithClock(clock Clock) *TableRegistry {
	r.now = clock
	return r
}

func (r *TableRegistry) Create(ctx context.Context, number string, kind models.TableKind) (*TableSnapshot, error) {
	if number == "" {
		return nil, fmt.Errorf("table number is required: %w", errs.ErrInvalidArgument)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown table kind %q: %w", kind, errs.ErrInvalidArgument)
	}

	table := &models.Table{
		TableNumber: number,
		Kind:        kind,
		Status:      models.TableStatusFree,
	}
	if err := r.store.Repos().Tables.Create(ctx, table); err != nil {
		return nil, err
	}

	snap := Snapshot(*table, r.now())
	r.notifier.Broadcast(realtime.EventTableCreate, snap)
	r.record(ctx, ActionTableCreate, table.ID, fmt.Sprintf("table %s (%s) created", number, kind))
	return &snap, nil
}

func (r *TableRegistry) Get(ctx context.Context, id uint) (*TableSnapshot, error) {
	table, err := r.store.Repos().Tables.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(*table, r.now())
	return &snap, nil
}

func (r *TableRegistry) List(ctx context.Context) ([]TableSnapshot, error) {
	tables, err := r.store.Repos().Tables.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	snaps := make([]TableSnapshot, 0, len(tables))
	for _, t := range tables {
		snaps = append(snaps, Snapshot(t, now))
	}
	return snaps, nil
}

func (r *TableRegistry) Start(ctx context.Context, id uint, req StartRequest) (*TableSnapshot, error) {
	if req.Rate.IsNegative() {
		return nil, fmt.Errorf("rate must not be negative: %w", errs.ErrInvalidArgument)
	}
	if req.ServiceCharge.IsNegative() {
		return nil, fmt.Errorf("service charge must not be negative: %w", errs.ErrInvalidArgument)
	}
	if req.LimitMinutes != nil && *req.LimitMinutes <= 0 {
		return nil, fmt.Errorf("limit minutes must be positive: %w", errs.ErrInvalidArgument)
	}

	table, now, err := r.mutate(ctx, id, func(repos repository.Repositories, t *models.Table, now time.Time) error {
		if t.Status != models.TableStatusFree {
			return fmt.Errorf("cannot start table %d in status %s: %w", t.ID, t.Status, errs.ErrInvalidTransition)
		}

		var limitEnd *time.Time
		if req.LimitMinutes != nil {
			end := now.Add(time.Duration(*req.LimitMinutes) * time.Minute)
			limitEnd = &end
		}
		t.Occupy(now, RoundMoney(req.Rate), limitEnd)
		t.ServiceCharge = t.ServiceCharge.Add(RoundMoney(req.ServiceCharge))

		session := &models.Session{TableID: t.ID, OpenedAt: now}
		if err := repos.Sessions.Create(ctx, session); err != nil {
			return err
		}
		t.CurrentSessionID = &session.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTableStart, table, now,
		fmt.Sprintf("started at rate %s, session %d", table.HourlyRate.StringFixed(2), *table.CurrentSessionID)), nil
}

func (r *TableRegistry) Stop(ctx context.Context, id uint) (*StopResult, error) {
	var result StopResult
	table, now, err := r.mutate(ctx, id, func(repos repository.Repositories, t *models.Table, now time.Time) error {
		if !t.IsActive() {
			return fmt.Errorf("cannot stop table %d in status %s: %w", t.ID, t.Status, errs.ErrNotOccupied)
		}

		result.RentalMinutes = RentalMinutes(*t, now)
		result.TotalCost = Charge(*t, now)

		if t.CurrentSessionID != nil {
			session, err := repos.Sessions.Get(ctx, *t.CurrentSessionID)
			if err != nil {
				return err
			}
			closed := now
			session.ClosedAt = &closed
			if err := repos.Sessions.Update(ctx, session); err != nil {
				return err
			}
		}

		t.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Table = *r.publish(ctx, ActionTableStop, table, now,
		fmt.Sprintf("stopped after %d minutes, total %s", result.RentalMinutes, result.TotalCost.StringFixed(2)))
	return &result, nil
}

func (r *TableRegistry) Pause(ctx context.Context, id uint) (*TableSnapshot, error) {
	table, now, err := r.mutate(ctx, id, func(_ repository.Repositories, t *models.Table, now time.Time) error {
		if t.Status != models.TableStatusOccupied {
			return fmt.Errorf("cannot pause table %d in status %s: %w", t.ID, t.Status, errs.ErrNotOccupied)
		}
		if t.Paused {
			return fmt.Errorf("table %d is already paused: %w", t.ID, errs.ErrInvalidTransition)
		}

		t.FrozenCharge = TimeCharge(t.HourlyRate, BillableDuration(*t, now))
		pausedAt := now
		t.Paused = true
		t.PausedAt = &pausedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTablePause, table, now,
		fmt.Sprintf("paused with time charge %s", table.FrozenCharge.StringFixed(2))), nil
}

func (r *TableRegistry) Resume(ctx context.Context, id uint) (*TableSnapshot, error) {
	table, now, err := r.mutate(ctx, id, func(_ repository.Repositories, t *models.Table, now time.Time) error {
		if t.Status != models.TableStatusOccupied {
			return fmt.Errorf("cannot resume table %d in status %s: %w", t.ID, t.Status, errs.ErrNotOccupied)
		}
		if !t.Paused {
			return fmt.Errorf("table %d is not paused: %w", t.ID, errs.ErrInvalidTransition)
		}
		resumeAt(t, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTableResume, table, now, "resumed"), nil
}

// resumeAt re-arms billing after a pause. StartedAt and LimitEnd move
// forward by the paused interval, so the time charge continues from the
// frozen amount and a prepaid limit keeps its remaining minutes.
func resumeAt(t *models.Table, now time.Time) {
	if t.PausedAt != nil && t.StartedAt != nil {
		if shift := now.Sub(*t.PausedAt); shift > 0 {
			started := t.StartedAt.Add(shift)
			t.StartedAt = &started
			if t.LimitEnd != nil {
				end := t.LimitEnd.Add(shift)
				t.LimitEnd = &end
			}
		}
	}
	t.Paused = false
	t.PausedAt = nil
	t.FrozenCharge = decimal.Zero
}

func (r *TableRegistry) EnterCleaning(ctx context.Context, id uint, minutes int) (*TableSnapshot, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("cleaning minutes must be positive: %w", errs.ErrInvalidArgument)
	}

	table, now, err := r.mutate(ctx, id, func(_ repository.Repositories, t *models.Table, now time.Time) error {
		until := now.Add(time.Duration(minutes) * time.Minute)
		t.CleaningUntil = &until
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTableCleaning, table, now,
		fmt.Sprintf("cleaning until %s", table.CleaningUntil.Format(time.RFC3339))), nil
}

func (r *TableRegistry) SetLight(ctx context.Context, id uint, on bool) (*TableSnapshot, error) {
	table, now, err := r.mutate(ctx, id, func(_ repository.Repositories, t *models.Table, _ time.Time) error {
		if !t.Kind.SupportsLight() {
			return fmt.Errorf("table %d is %s: %w", t.ID, t.Kind, errs.ErrLightNotSupported)
		}
		t.LightOn = on
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTableLight, table, now, fmt.Sprintf("light on=%t", on)), nil
}

// Settle starts bill finalization. The time charge is fixed into the
// accrued service charge so the bill stops growing.
func (r *TableRegistry) Settle(ctx context.Context, id uint) (*TableSnapshot, error) {
	table, now, err := r.mutate(ctx, id, func(_ repository.Repositories, t *models.Table, now time.Time) error {
		switch t.Status {
		case models.TableStatusOccupied:
		case models.TableStatusSettling:
			return fmt.Errorf("table %d is already settling: %w", t.ID, errs.ErrInvalidTransition)
		default:
			return fmt.Errorf("cannot settle table %d in status %s: %w", t.ID, t.Status, errs.ErrNotOccupied)
		}

		if t.Paused {
			resumeAt(t, now)
		}
		t.ServiceCharge = t.ServiceCharge.Add(TimeCharge(t.HourlyRate, BillableDuration(*t, now)))
		settledAt := now
		t.SettledAt = &settledAt
		t.Status = models.TableStatusSettling
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTableSettle, table, now,
		fmt.Sprintf("settling, amount due %s", table.ServiceCharge.StringFixed(2))), nil
}

// AddServiceCharge adds a flat charge (equipment rental and the like).
func (r *TableRegistry) AddServiceCharge(ctx context.Context, id uint, amount decimal.Decimal) (*TableSnapshot, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("charge amount must be positive: %w", errs.ErrInvalidArgument)
	}

	table, now, err := r.mutate(ctx, id, func(_ repository.Repositories, t *models.Table, _ time.Time) error {
		if !t.IsActive() {
			return fmt.Errorf("cannot charge table %d in status %s: %w", t.ID, t.Status, errs.ErrNotOccupied)
		}
		t.ServiceCharge = t.ServiceCharge.Add(RoundMoney(amount))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.publish(ctx, ActionTableCharge, table, now,
		fmt.Sprintf("service charge +%s", RoundMoney(amount).StringFixed(2))), nil
}

type mutation func(repos repository.Repositories, t *models.Table, now time.Time) error

// mutate runs fn against a locked table row and writes it back
// conditionally on its version.
func (r *TableRegistry) mutate(ctx context.Context, id uint, fn mutation) (*models.Table, time.Time, error) {
	now := r.now()
	var table *models.Table

	err := r.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		t, err := repos.Tables.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(repos, t, now); err != nil {
			return err
		}
		if err := repos.Tables.Update(ctx, t); err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithField("table_id", id).Warn("table operation rejected")
		return nil, now, err
	}
	return table, now, nil
}

func (r *TableRegistry) publish(ctx context.Context, action string, t *models.Table, now time.Time, detail string) *TableSnapshot {
	snap := Snapshot(*t, now)
	r.notifier.Broadcast(realtime.EventTableUpdate, snap)
	r.record(ctx, action, t.ID, detail)
	r.log.WithFields(logrus.Fields{
		"table_id": t.ID,
		"action":   action,
		"status":   t.Status,
	}).Info(detail)
	return &snap
}

func (r *TableRegistry) record(ctx context.Context, action string, tableID uint, detail string) {
	id := tableID
	r.audit.Record(models.AuditLog{
		EmployeeID: ActorFrom(ctx),
		Action:     action,
		TableID:    &id,
		Detail:     detail,
		CreatedAt:  r.now(),
	})
}

// SeedPlan is the number of tables of each kind to provision on an empty
// database.
type SeedPlan struct {
	Timed    int
	FlatRate int
	Free     int
}

// Seed provisions tables numbered from 1 when no table exists yet. It
// returns the number of tables created.
func (r *TableRegistry) Seed(ctx context.Context, plan SeedPlan) (int, error) {
	count, err := r.store.Repos().Tables.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	kinds := []struct {
		kind models.TableKind
		n    int
	}{
		{models.TableKindTimed, plan.Timed},
		{models.TableKindFlatRate, plan.FlatRate},
		{models.TableKindFree, plan.Free},
	}

	created := 0
	for _, k := range kinds {
		for i := 0; i < k.n; i++ {
			if _, err := r.Create(ctx, strconv.Itoa(created+1), k.kind); err != nil {
				return created, err
			}
			created++
		}
	}
	if created > 0 {
		r.log.WithField("count", created).Info("tables provisioned")
	}
	return created, nil
}
