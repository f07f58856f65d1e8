package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/realtime"
	"github.com/yeremiapane/tablehub/repository"
)

const ActionItemAdd = "item_add"

type ItemInput struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Notes    string
}

// SessionView is a table's open session with its attached order items.
type SessionView struct {
	Session    models.Session     `json:"session"`
	Items      []models.OrderItem `json:"items"`
	ItemsTotal decimal.Decimal    `json:"items_total"`
	Table      TableSnapshot      `json:"table"`
}

// SessionService reads sessions and attaches order items to them. It stands
// in for the order subsystem, which owns items in production.
type SessionService struct {
	store    repository.Store
	notifier Notifier
	audit    AuditSink
	log      logrus.FieldLogger
	now      Clock
}

func NewSessionService(store repository.Store, notifier Notifier, audit AuditSink, log logrus.FieldLogger) *SessionService {
	return &SessionService{
		store:    store,
		notifier: notifier,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

func (s *SessionService) WithClock(clock Clock) *SessionService {
	s.now = clock
	return s
}

func (s *SessionService) CurrentSession(ctx context.Context, tableID uint) (*SessionView, error) {
	repos := s.store.Repos()
	table, err := repos.Tables.Get(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.CurrentSessionID == nil {
		return nil, fmt.Errorf("table %d has no open session: %w", tableID, errs.ErrNotFound)
	}

	session, err := repos.Sessions.Get(ctx, *table.CurrentSessionID)
	if err != nil {
		return nil, err
	}
	items, err := repos.Items.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return &SessionView{
		Session:    *session,
		Items:      items,
		ItemsTotal: RoundMoney(total),
		Table:      Snapshot(*table, s.now()),
	}, nil
}

// AddItem attaches an item to the table's current session. The table row is
// locked so the item cannot land on a session that is being moved away.
func (s *SessionService) AddItem(ctx context.Context, tableID uint, in ItemInput) (*models.OrderItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("item name is required: %w", errs.ErrInvalidArgument)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", errs.ErrInvalidArgument)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative: %w", errs.ErrInvalidArgument)
	}

	now := s.now()
	var item *models.OrderItem
	err := s.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		table, err := repos.Tables.GetForUpdate(ctx, tableID)
		if err != nil {
			return err
		}
		if table.CurrentSessionID == nil {
			return fmt.Errorf("table %d has no open session: %w", tableID, errs.ErrNotOccupied)
		}

		item = &models.OrderItem{
			SessionID: *table.CurrentSessionID,
			Name:      name,
			Quantity:  in.Quantity,
			Price:     RoundMoney(in.Price),
			Notes:     in.Notes,
			Status:    "pending",
			CreatedAt: now,
			UpdatedAt: now,
		}
		return repos.Items.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(realtime.EventItemsUpdate, item)
	table := tableID
	s.audit.Record(models.AuditLog{
		EmployeeID: ActorFrom(ctx),
		Action:     ActionItemAdd,
		TableID:    &table,
		Detail:     fmt.Sprintf("%dx %s added to session %d", item.Quantity, item.Name, item.SessionID),
		CreatedAt:  now,
	})
	s.log.WithFields(logrus.Fields{
		"table_id":   tableID,
		"session_id": item.SessionID,
		"item_id":    item.ID,
	}).Info("order item added")
	return item, nil
}

func (s *SessionService) ItemsOfSession(ctx context.Context, sessionID uint) ([]models.OrderItem, error) {
	repos := s.store.Repos()
	if _, err := repos.Sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return repos.Items.ListBySession(ctx, sessionID)
}
