package authz

import (
	"context"

	"gearguard/pkg/contextkeys"
	apperrors "gearguard/pkg/errors"
)

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextkeys.ActorKey, actor)
}

func ActorFromContext(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(Actor)
	if !ok {
		return Actor{}, apperrors.ErrActorNotFoundInContext
	}
	return actor, nil
}
