package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tablehub/models"
)

func TestAsyncAuditSink(t *testing.T) {
	env := newTestEnv(t)
	log, _ := test.NewNullLogger()
	repo := env.store.Audit()

	sink := NewAsyncAuditSink(repo, log, 8)
	sink.Record(models.AuditLog{Action: ActionTableStart, Detail: "one", CreatedAt: baseTime})
	sink.Record(models.AuditLog{Action: ActionTableStop, Detail: "two", CreatedAt: baseTime})
	sink.Close()
	sink.Close()

	// Recording after close is ignored.
	sink.Record(models.AuditLog{Action: ActionTablePause, CreatedAt: baseTime})

	entries, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionTableStop, entries[0].Action)
	assert.Equal(t, ActionTableStart, entries[1].Action)
}

func TestActorContext(t *testing.T) {
	assert.Nil(t, ActorFrom(context.Background()))

	id := ActorFrom(WithActor(context.Background(), 7))
	require.NotNil(t, id)
	assert.Equal(t, uint(7), *id)
}
