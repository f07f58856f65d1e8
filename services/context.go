package services

import (
	"context"
	"time"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

type actorKey struct{}

// WithActor tags ctx with the employee performing the request.
func WithActor(ctx context.Context, employeeID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, employeeID)
}

// ActorFrom returns the employee recorded by WithActor, if any.
func ActorFrom(ctx context.Context) *uint {
	id, ok := ctx.Value(actorKey{}).(uint)
	if !ok {
		return nil
	}
	return &id
}
