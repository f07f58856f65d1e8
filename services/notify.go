package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/repository"
)

// Notifier pushes state changes to connected displays. Delivery is best
// effort and never affects the outcome of an operation.
type Notifier interface {
	Broadcast(event string, data interface{})
}

type NopNotifier struct{}

func (NopNotifier) Broadcast(string, interface{}) {}

// AuditSink receives a record of every lifecycle and migration action.
// Record must not block the caller.
type AuditSink interface {
	Record(entry models.AuditLog)
}

type NopAuditSink struct{}

func (NopAuditSink) Record(models.AuditLog) {}

// AsyncAuditSink writes audit entries from a background goroutine. Entries
// that do not fit in the buffer are dropped and logged.
type AsyncAuditSink struct {
	repo    repository.AuditRepository
	log     logrus.FieldLogger
	entries chan models.AuditLog
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func NewAsyncAuditSink(repo repository.AuditRepository, log logrus.FieldLogger, buffer int) *AsyncAuditSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &AsyncAuditSink{
		repo:    repo,
		log:     log,
		entries: make(chan models.AuditLog, buffer),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncAuditSink) Record(entry models.AuditLog) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.entries <- entry:
	default:
		s.log.WithField("action", entry.Action).Warn("audit buffer full, dropping entry")
	}
}

// Close flushes buffered entries and stops the writer.
func (s *AsyncAuditSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *AsyncAuditSink) run() {
	defer s.wg.Done()
	for entry := range s.entries {
		entry := entry
		if err := s.repo.Create(context.Background(), &entry); err != nil {
			s.log.WithError(err).WithField("action", entry.Action).Error("failed to write audit entry")
		}
	}
}
