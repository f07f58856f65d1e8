package realtime

import "time"

// Event types
const (
	EventTableUpdate = "table_update"
	EventTableCreate = "table_create"
	EventItemsUpdate = "items_update"
	EventMoveQueued  = "move_queued"
	EventMoveDone    = "move_done"
	EventMoveFailed  = "move_failed"
)

type Message struct {
	Event      string      `json:"event"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Broadcaster is anything that can push a message to listeners.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// Fanout delivers every message to each of its targets in order.
type Fanout []Broadcaster

func (f Fanout) Broadcast(event string, data interface{}) {
	for _, b := range f {
		if b != nil {
			b.Broadcast(event, data)
		}
	}
}
