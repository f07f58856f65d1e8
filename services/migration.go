package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/realtime"
	"github.com/yeremiapane/tablehub/repository"
)

const resultNothingToMove = "no-op, nothing to move"

var errAlreadyClaimed = errors.New("move event already claimed")

type migrationResult struct {
	summary string
	tables  []*models.Table
}

// MigrationCoordinator applies one queued move event. The claim, the
// reassignment and the terminal status commit together or not at all.
type MigrationCoordinator struct {
	store    repository.Store
	queue    *MoveQueue
	notifier Notifier
	audit    AuditSink
	log      logrus.FieldLogger
	now      Clock
}

func NewMigrationCoordinator(store repository.Store, queue *MoveQueue, notifier Notifier, audit AuditSink, log logrus.FieldLogger) *MigrationCoordinator {
	return &MigrationCoordinator{
		store:    store,
		queue:    queue,
		notifier: notifier,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

func (c *MigrationCoordinator) WithClock(clock Clock) *MigrationCoordinator {
	c.now = clock
	return c
}

// Process runs the event if it is still pending. It reports whether this
// call took the event to a terminal state. Storage conflicts and context
// errors leave the event pending for a later poll.
func (c *MigrationCoordinator) Process(ctx context.Context, eventID uint) (bool, error) {
	now := c.now()
	log := c.log.WithField("event_id", eventID)

	var (
		event  *models.MoveEvent
		result migrationResult
	)
	err := c.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		ev, err := repos.Events.Get(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.Status != models.MoveStatusPending {
			return errAlreadyClaimed
		}

		claimed, err := c.queue.MarkProcessing(ctx, repos.Events, ev.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return errAlreadyClaimed
		}

		res, err := c.apply(ctx, repos, ev, now)
		if err != nil {
			return err
		}
		if err := c.queue.MarkTerminal(ctx, repos.Events, ev.ID, models.MoveStatusDone, res.summary, ""); err != nil {
			return err
		}

		event, result = ev, res
		return nil
	})

	switch {
	case err == nil:
		event.Status = models.MoveStatusDone
		event.Result = result.summary
		log.WithField("result", result.summary).Info("move event done")
		c.announce(event, result, now)
		return true, nil

	case errors.Is(err, errAlreadyClaimed):
		log.Debug("move event already claimed, skipping")
		return false, nil

	case errors.Is(err, errs.ErrStorageConflict),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Warn("move event left pending")
		return false, err
	}

	return c.fail(ctx, eventID, err, now)
}

// fail records a terminal error. The migration transaction already rolled
// back, so the event is pending again and must be claimed before it can be
// marked.
func (c *MigrationCoordinator) fail(ctx context.Context, eventID uint, cause error, now time.Time) (bool, error) {
	log := c.log.WithField("event_id", eventID)

	var event *models.MoveEvent
	err := c.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		claimed, err := c.queue.MarkProcessing(ctx, repos.Events, eventID)
		if err != nil {
			return err
		}
		if !claimed {
			return errAlreadyClaimed
		}
		if err := c.queue.MarkTerminal(ctx, repos.Events, eventID, models.MoveStatusError, "", cause.Error()); err != nil {
			return err
		}
		event, err = repos.Events.Get(ctx, eventID)
		return err
	})
	if errors.Is(err, errAlreadyClaimed) {
		return false, nil
	}
	if err != nil {
		// The event is pending again and the next poll will run it once more.
		log.WithError(err).WithFields(logrus.Fields{
			"cause":  cause.Error(),
			"status": models.MoveStatusPending,
		}).Error("failed to record move event error, event left pending")
		return false, err
	}

	log.WithError(cause).Warn("move event failed")
	c.notifier.Broadcast(realtime.EventMoveFailed, event)
	c.audit.Record(models.AuditLog{
		EmployeeID: event.RequestedBy,
		Action:     ActionMoveFailed,
		TableID:    &event.SourceTableID,
		EventID:    &event.ID,
		Detail:     cause.Error(),
		CreatedAt:  now,
	})
	return true, nil
}

func (c *MigrationCoordinator) announce(event *models.MoveEvent, result migrationResult, now time.Time) {
	for _, t := range result.tables {
		c.notifier.Broadcast(realtime.EventTableUpdate, Snapshot(*t, now))
	}
	c.notifier.Broadcast(realtime.EventMoveDone, event)
	c.audit.Record(models.AuditLog{
		EmployeeID: event.RequestedBy,
		Action:     ActionMoveDone,
		TableID:    &event.DestTableID,
		EventID:    &event.ID,
		Detail:     result.summary,
		CreatedAt:  now,
	})
}

func (c *MigrationCoordinator) apply(ctx context.Context, repos repository.Repositories, ev *models.MoveEvent, now time.Time) (migrationResult, error) {
	source, dest, err := lockPair(ctx, repos.Tables, ev.SourceTableID, ev.DestTableID)
	if err != nil {
		return migrationResult{}, err
	}

	switch ev.Kind {
	case models.MoveKindSession:
		return moveSession(ctx, repos, source, dest)
	case models.MoveKindItems:
		return moveItems(ctx, repos, source, dest, ev.ItemIDs, now)
	default:
		return migrationResult{}, fmt.Errorf("unknown move kind %q: %w", ev.Kind, errs.ErrInvalidArgument)
	}
}

// lockPair locks both tables in id order so two opposite moves cannot
// deadlock each other.
func lockPair(ctx context.Context, tables repository.TableRepository, sourceID, destID uint) (*models.Table, *models.Table, error) {
	first, second := sourceID, destID
	if second < first {
		first, second = second, first
	}

	a, err := tables.GetForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := tables.GetForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.ID == sourceID {
		return a, b, nil
	}
	return b, a, nil
}

// moveSession re-hosts the source's session on dest. The session row is
// kept, so its items and history follow it.
func moveSession(ctx context.Context, repos repository.Repositories, source, dest *models.Table) (migrationResult, error) {
	if source.CurrentSessionID == nil {
		return migrationResult{summary: resultNothingToMove}, nil
	}
	if dest.CurrentSessionID != nil || dest.Status != models.TableStatusFree {
		return migrationResult{}, fmt.Errorf("table %d is %s: %w", dest.ID, dest.Status, errs.ErrDestinationUnavailable)
	}

	session, err := repos.Sessions.Get(ctx, *source.CurrentSessionID)
	if err != nil {
		return migrationResult{}, err
	}
	session.TableID = dest.ID
	if err := repos.Sessions.Update(ctx, session); err != nil {
		return migrationResult{}, err
	}

	dest.TakeOver(source, session.ID)
	source.Reset()
	if err := repos.Tables.Update(ctx, source); err != nil {
		return migrationResult{}, err
	}
	if err := repos.Tables.Update(ctx, dest); err != nil {
		return migrationResult{}, err
	}

	return migrationResult{
		summary: fmt.Sprintf("moved session %d from table %d to table %d", session.ID, source.ID, dest.ID),
		tables:  []*models.Table{source, dest},
	}, nil
}

// moveItems reassigns exactly the listed items from the source session to
// the destination session, opening one on dest if it is free.
func moveItems(ctx context.Context, repos repository.Repositories, source, dest *models.Table, itemIDs []uint, now time.Time) (migrationResult, error) {
	if source.CurrentSessionID == nil {
		return migrationResult{}, fmt.Errorf("table %d has no session: %w", source.ID, errs.ErrNotOccupied)
	}
	sourceSession := *source.CurrentSessionID

	items, err := repos.Items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return migrationResult{}, err
	}
	if missing := missingItems(itemIDs, items); len(missing) > 0 {
		return migrationResult{}, fmt.Errorf("order items %v: %w", missing, errs.ErrNotFound)
	}
	for _, item := range items {
		if item.SessionID != sourceSession {
			return migrationResult{}, fmt.Errorf("order item %d belongs to session %d, not to table %d: %w",
				item.ID, item.SessionID, source.ID, errs.ErrInvalidArgument)
		}
	}

	var destSession uint
	tables := []*models.Table{dest}
	switch {
	case dest.Status == models.TableStatusOccupied && dest.CurrentSessionID != nil:
		destSession = *dest.CurrentSessionID
	case dest.Status == models.TableStatusFree && dest.CurrentSessionID == nil:
		session := &models.Session{TableID: dest.ID, OpenedAt: now, MergedFromID: &sourceSession}
		if err := repos.Sessions.Create(ctx, session); err != nil {
			return migrationResult{}, err
		}
		dest.Occupy(now, decimal.Zero, nil)
		dest.CurrentSessionID = &session.ID
		if err := repos.Tables.Update(ctx, dest); err != nil {
			return migrationResult{}, err
		}
		destSession = session.ID
	default:
		return migrationResult{}, fmt.Errorf("table %d is %s: %w", dest.ID, dest.Status, errs.ErrDestinationUnavailable)
	}

	moved, err := repos.Items.Reassign(ctx, itemIDs, destSession)
	if err != nil {
		return migrationResult{}, err
	}
	if moved != int64(len(itemIDs)) {
		return migrationResult{}, fmt.Errorf("reassigned %d of %d order items: %w", moved, len(itemIDs), errs.ErrStorageConflict)
	}

	return migrationResult{
		summary: fmt.Sprintf("moved %d items from session %d to session %d on table %d", moved, sourceSession, destSession, dest.ID),
		tables:  tables,
	}, nil
}

func missingItems(want []uint, found []models.OrderItem) []uint {
	have := make(map[uint]struct{}, len(found))
	for _, item := range found {
		have[item.ID] = struct{}{}
	}
	var missing []uint
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
