// Package mongo connects to MongoDB and stores users together with their
// subscription record.
//
// Each user is one document in the users collection. The subscription record
// is an embedded sub-document written field by field, so a status change
// never rewrites the trial or billing dates.
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := mongo.NewUserStore(client.Database(cfg.Database))
//	if err := store.Migrate(ctx); err != nil {
//		return err
//	}
//
// UserStore implements both account.Store and subscription.Store.
package mongo
