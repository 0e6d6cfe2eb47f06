package syncrepo

import (
	"context"

	"github.com/rghsoftware/mealsync/internal/gateway"
)

// GatewayRemote adapts the HTTP gateway client to the typed Remote contract
// for one collection.
type GatewayRemote[T any, PT RecordPtr[T]] struct {
	client     *gateway.Client
	collection string
}

func NewGatewayRemote[T any, PT RecordPtr[T]](client *gateway.Client, collection string) *GatewayRemote[T, PT] {
	return &GatewayRemote[T, PT]{client: client, collection: collection}
}

func (g *GatewayRemote[T, PT]) Create(ctx context.Context, rec PT) (PT, error) {
	out := PT(new(T))
	if err := g.client.Create(ctx, g.collection, rec, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayRemote[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	out := PT(new(T))
	if err := g.client.Get(ctx, g.collection, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayRemote[T, PT]) Update(ctx context.Context, rec PT) (PT, error) {
	out := PT(new(T))
	if err := g.client.Update(ctx, g.collection, rec.RecordID(), rec, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GatewayRemote[T, PT]) Delete(ctx context.Context, id string) error {
	return g.client.Delete(ctx, g.collection, id)
}
