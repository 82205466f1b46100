// Package redis connects to Redis for the shared auth session store.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := authsession.NewRedisStore(client, "")
//
// Healthcheck adapts a client into a readiness probe for httpserver.
package redis
