package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventProcessor polls the move queue on a fixed interval and hands each
// pending event to the coordinator, oldest first. Running several
// processors is safe; the claim in MarkProcessing lets only one win.
type EventProcessor struct {
	queue       *MoveQueue
	coordinator *MigrationCoordinator
	log         logrus.FieldLogger

	Interval     time.Duration
	BatchSize    int
	EventTimeout time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewEventProcessor(queue *MoveQueue, coordinator *MigrationCoordinator, log logrus.FieldLogger) *EventProcessor {
	return &EventProcessor{
		queue:        queue,
		coordinator:  coordinator,
		log:          log,
		Interval:     2 * time.Second,
		BatchSize:    10,
		EventTimeout: 10 * time.Second,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. It returns immediately.
func (p *EventProcessor) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()

		p.log.WithFields(logrus.Fields{
			"interval":   p.Interval,
			"batch_size": p.BatchSize,
		}).Info("move event processor started")

		for {
			select {
			case <-ticker.C:
				if _, err := p.RunOnce(ctx); err != nil {
					p.log.WithError(err).Error("failed to poll move events")
				}
			case <-p.stopChan:
				p.log.Info("move event processor stopped")
				return
			case <-ctx.Done():
				p.log.Info("move event processor stopped")
				return
			}
		}
	}()
}

// Stop stops polling and waits for the event in flight to finish.
func (p *EventProcessor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	p.wg.Wait()
}

// RunOnce processes one batch and returns how many events reached a
// terminal state.
func (p *EventProcessor) RunOnce(ctx context.Context) (int, error) {
	events, err := p.queue.PollPending(ctx, p.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(events) > 0 {
		p.log.WithField("count", len(events)).Debug("found pending move events")
	}

	processed := 0
	for _, event := range events {
		if p.stopping(ctx) {
			break
		}

		// An event that has started is allowed to finish even if ctx is
		// cancelled during shutdown.
		eventCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.EventTimeout)
		done, err := p.coordinator.Process(eventCtx, event.ID)
		cancel()

		if err != nil {
			p.log.WithError(err).WithField("event_id", event.ID).Warn("move event not processed")
			continue
		}
		if done {
			processed++
		}
	}

	if processed > 0 {
		p.log.WithField("count", processed).Info("processed move events")
	}
	return processed, nil
}

// stopping reports whether no further event should be started.
func (p *EventProcessor) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-p.stopChan:
		return true
	default:
		return false
	}
}
