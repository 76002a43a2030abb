package context

import (
	"context"

	"invoicer/infrastructure/cache"
)

type draftKey struct{}

func NewContextWithDraft(ctx context.Context, draft *cache.Draft) context.Context {
	return context.WithValue(ctx, draftKey{}, draft)
}

func GetDraftFromContext(ctx context.Context) (*cache.Draft, bool) {
	d, ok := ctx.Value(draftKey{}).(*cache.Draft)
	return d, ok && d != nil
}
