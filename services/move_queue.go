package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/realtime"
	"github.com/yeremiapane/tablehub/repository"
)

const (
	ActionMoveQueued = "move_queued"
	ActionMoveDone   = "move_done"
	ActionMoveFailed = "move_failed"

	maxIdempotencyKeyLen = 100
	defaultPollLimit     = 10
)

// moveKeyNamespace seeds the name-based UUIDs used as derived idempotency keys.
var moveKeyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tablehub/move-events"))

type MoveRequest struct {
	SourceTableID  uint
	DestTableID    uint
	Scope          models.MoveScope
	ItemIDs        []uint
	IdempotencyKey string
}

// MoveQueue is the outbox of migration requests.
type MoveQueue struct {
	store    repository.Store
	notifier Notifier
	audit    AuditSink
	log      logrus.FieldLogger
	now      Clock
}

func NewMoveQueue(store repository.Store, notifier Notifier, audit AuditSink, log logrus.FieldLogger) *MoveQueue {
	return &MoveQueue{
		store:    store,
		notifier: notifier,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

func (q *MoveQueue) WithClock(clock Clock) *MoveQueue {
	q.now = clock
	return q
}

// Enqueue stores a pending event unless an event holding the same
// idempotency key is pending, processing or done, in which case that event
// is returned with duplicate set.
func (q *MoveQueue) Enqueue(ctx context.Context, req MoveRequest) (event *models.MoveEvent, duplicate bool, err error) {
	kind, items, err := normalizeMove(req)
	if err != nil {
		return nil, false, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, false, fmt.Errorf("idempotency key longer than %d: %w", maxIdempotencyKeyLen, errs.ErrInvalidArgument)
	}

	now := q.now()
	err = q.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		source, err := repos.Tables.Get(ctx, req.SourceTableID)
		if err != nil {
			return err
		}
		if _, err := repos.Tables.Get(ctx, req.DestTableID); err != nil {
			return err
		}
		if key == "" {
			key = deriveMoveKey(kind, req, items, source)
		}

		existing, err := repos.Events.FindByDedupKey(ctx, key)
		if err == nil {
			event, duplicate = existing, true
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		dedup := key
		ev := &models.MoveEvent{
			Kind:           kind,
			SourceTableID:  req.SourceTableID,
			DestTableID:    req.DestTableID,
			Scope:          req.Scope,
			ItemIDs:        items,
			IdempotencyKey: key,
			DedupKey:       &dedup,
			RequestedBy:    ActorFrom(ctx),
			Status:         models.MoveStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repos.Events.Create(ctx, ev); err != nil {
			return err
		}
		event = ev
		return nil
	})
	if errors.Is(err, errs.ErrStorageConflict) && key != "" {
		// A concurrent request inserted the same key first.
		existing, ferr := q.store.Repos().Events.FindByDedupKey(ctx, key)
		if ferr == nil {
			return q.accepted(ctx, existing, true), true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	return q.accepted(ctx, event, duplicate), duplicate, nil
}

func (q *MoveQueue) accepted(ctx context.Context, event *models.MoveEvent, duplicate bool) *models.MoveEvent {
	log := q.log.WithFields(logrus.Fields{
		"event_id":        event.ID,
		"idempotency_key": event.IdempotencyKey,
	})
	if duplicate {
		log.WithError(errs.ErrDuplicateRequest).Info("move request already queued")
		return event
	}

	log.WithFields(logrus.Fields{
		"source_table_id": event.SourceTableID,
		"dest_table_id":   event.DestTableID,
		"kind":            event.Kind,
	}).Info("move request queued")
	q.notifier.Broadcast(realtime.EventMoveQueued, event)

	id, source := event.ID, event.SourceTableID
	q.audit.Record(models.AuditLog{
		EmployeeID: ActorFrom(ctx),
		Action:     ActionMoveQueued,
		TableID:    &source,
		EventID:    &id,
		Detail:     fmt.Sprintf("%s from table %d to table %d", event.Kind, event.SourceTableID, event.DestTableID),
		CreatedAt:  q.now(),
	})
	return event
}

// PollPending returns up to limit pending events, oldest first.
func (q *MoveQueue) PollPending(ctx context.Context, limit int) ([]models.MoveEvent, error) {
	if limit <= 0 {
		limit = defaultPollLimit
	}
	return q.store.Repos().Events.ListPending(ctx, limit)
}

// MarkProcessing claims a pending event. It reports false, without error,
// when the event is no longer pending.
func (q *MoveQueue) MarkProcessing(ctx context.Context, events repository.EventRepository, id uint) (bool, error) {
	return events.Transition(ctx, id, models.MoveStatusPending, repository.EventUpdate{
		Status:    models.MoveStatusProcessing,
		UpdatedAt: q.now(),
	})
}

// MarkTerminal finishes a processing event. A failed event releases its
// idempotency key.
func (q *MoveQueue) MarkTerminal(ctx context.Context, events repository.EventRepository, id uint, status models.MoveStatus, result, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %s is not terminal: %w", status, errs.ErrInvalidArgument)
	}

	ok, err := events.Transition(ctx, id, models.MoveStatusProcessing, repository.EventUpdate{
		Status:        status,
		UpdatedAt:     q.now(),
		Result:        result,
		ErrorMessage:  errMsg,
		ClearDedupKey: status == models.MoveStatusError,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("move event %d is not processing: %w", id, errs.ErrInvalidTransition)
	}
	return nil
}

func (q *MoveQueue) Get(ctx context.Context, id uint) (*models.MoveEvent, error) {
	return q.store.Repos().Events.Get(ctx, id)
}

func (q *MoveQueue) List(ctx context.Context, status models.MoveStatus, limit int) ([]models.MoveEvent, error) {
	if status != "" {
		switch status {
		case models.MoveStatusPending, models.MoveStatusProcessing, models.MoveStatusDone, models.MoveStatusError:
		default:
			return nil, fmt.Errorf("unknown move status %q: %w", status, errs.ErrInvalidArgument)
		}
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return q.store.Repos().Events.List(ctx, status, limit)
}

func normalizeMove(req MoveRequest) (models.MoveKind, []uint, error) {
	if req.SourceTableID == 0 || req.DestTableID == 0 {
		return "", nil, fmt.Errorf("source and destination tables are required: %w", errs.ErrInvalidArgument)
	}
	if req.SourceTableID == req.DestTableID {
		return "", nil, fmt.Errorf("source and destination are the same table: %w", errs.ErrInvalidArgument)
	}

	switch req.Scope {
	case models.MoveScopeAll:
		if len(req.ItemIDs) > 0 {
			return "", nil, fmt.Errorf("item ids are only allowed with scope %q: %w", models.MoveScopeItems, errs.ErrInvalidArgument)
		}
		return models.MoveKindSession, nil, nil
	case models.MoveScopeItems:
		items := uniqueSorted(req.ItemIDs)
		if len(items) == 0 {
			return "", nil, fmt.Errorf("scope %q needs at least one item id: %w", models.MoveScopeItems, errs.ErrInvalidArgument)
		}
		if items[0] == 0 {
			return "", nil, fmt.Errorf("item id 0 is not valid: %w", errs.ErrInvalidArgument)
		}
		return models.MoveKindItems, items, nil
	default:
		return "", nil, fmt.Errorf("unknown move scope %q: %w", req.Scope, errs.ErrInvalidArgument)
	}
}

func uniqueSorted(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// deriveMoveKey builds a key for requests that came without one. It binds
// the request to the source table's current session and row version, so a
// double submit collapses while a later move of the same tables does not.
func deriveMoveKey(kind models.MoveKind, req MoveRequest, items []uint, source *models.Table) string {
	var session uint
	if source.CurrentSessionID != nil {
		session = *source.CurrentSessionID
	}
	name := fmt.Sprintf("%s|%d|%d|%s|%v|%d|%d",
		kind, req.SourceTableID, req.DestTableID, req.Scope, items, session, source.Version)
	return uuid.NewSHA1(moveKeyNamespace, []byte(name)).String()
}
