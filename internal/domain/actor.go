package domain

import "context"

// Actor identifies who performed a mutation. The API layer puts it on the
// context; the store never infers it.
type Actor struct {
	UserID    *string
	IPAddress string
	UserAgent string
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
