// Package redis connects to Redis for session storage.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	probe := redis.Healthcheck(client)
//
// An empty REDIS_URL leaves Redis disabled; the application then keeps
// sessions in memory.
package redis
