package app

import (
	"context"
	"fmt"

	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/infrastructure/config"
	"github.com/avachat/chat-widget/internal/infrastructure/db/memory"
	mongostore "github.com/avachat/chat-widget/internal/infrastructure/db/mongo"
	pebblestore "github.com/avachat/chat-widget/internal/infrastructure/db/pebble"
	redisstore "github.com/avachat/chat-widget/internal/infrastructure/db/redis"
)

// OpenTokenStore opens the durable client storage selected by cfg.
func OpenTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenStore, error) {
	key := cfg.TokenStore.Key
	switch cfg.TokenStore.Driver {
	case config.StorePebble:
		return pebblestore.Open(pebblestore.Config{Path: cfg.TokenStore.Path, Key: key})
	case config.StoreRedis:
		return redisstore.Open(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, key)
	case config.StoreMongo:
		return mongostore.Open(ctx, mongostore.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		}, key)
	case config.StoreMemory:
		return memory.NewTokenStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore.Driver)
	}
}
