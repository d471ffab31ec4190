package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

const colUsers = "users"

var (
	_ account.Store      = (*UserStore)(nil)
	_ subscription.Store = (*UserStore)(nil)
)

// UserStore keeps users and their embedded subscription records.
type UserStore struct {
	users *mongo.Collection
	now   func() time.Time
}

// NewUserStore returns a store over db's users collection.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		users: db.Collection(colUsers),
		now:   time.Now,
	}
}

// Migrate creates the collection indexes.
func (s *UserStore) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.users.Database().Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// ==================== account.Store ====================

func (s *UserStore) Create(ctx context.Context, user *account.User) error {
	if _, err := s.users.InsertOne(ctx, toUserModel(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.ErrEmailTaken
		}
		return fmt.Errorf("mongo: create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*account.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *UserStore) GetByGoogleID(ctx context.Context, googleID string) (*account.User, error) {
	if googleID == "" {
		return nil, account.ErrUserNotFound
	}
	return s.findUser(ctx, bson.M{"googleId": googleID})
}

func (s *UserStore) findUser(ctx context.Context, filter bson.M) (*account.User, error) {
	var m userModel
	err := s.users.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"subscription": 0})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, account.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: get user: %w", err)
	}
	return fromUserModel(&m), nil
}

// ==================== subscription.Store ====================

func (s *UserStore) Read(ctx context.Context, userID string) (*subscription.Record, error) {
	var m userModel
	err := s.users.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"subscription": 1})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subscription.ErrRecordNotFound
		}
		return nil, fmt.Errorf("mongo: read subscription: %w", err)
	}
	return fromSubscriptionModel(m.Subscription), nil
}

func (s *UserStore) Write(ctx context.Context, userID string, patch subscription.Patch) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, patchUpdate(patch, s.now()))
	if err != nil {
		return fmt.Errorf("mongo: write subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return subscription.ErrRecordNotFound
	}
	return nil
}

func (s *UserStore) FindByExternalID(ctx context.Context, externalID string) (string, *subscription.Record, error) {
	if externalID == "" {
		return "", nil, subscription.ErrRecordNotFound
	}

	var m userModel
	err := s.users.FindOne(ctx,
		bson.M{subscriptionPath(subscription.FieldExternalID): externalID},
		options.FindOne().SetProjection(bson.M{"subscription": 1}),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return "", nil, subscription.ErrRecordNotFound
		}
		return "", nil, fmt.Errorf("mongo: find by external id: %w", err)
	}
	return m.ID, fromSubscriptionModel(m.Subscription), nil
}

func (s *UserStore) ListDueTrials(ctx context.Context, before time.Time, limit int) ([]subscription.DueTrial, error) {
	opts := options.Find().
		SetProjection(bson.M{"subscription": 1}).
		SetSort(bson.D{
			{Key: subscriptionPath(subscription.FieldTrialEndDate), Value: 1},
			{Key: "_id", Value: 1},
		})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.users.Find(ctx, dueTrialsFilter(before), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list due trials: %w", err)
	}

	var models []userModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("mongo: list due trials: %w", err)
	}

	out := make([]subscription.DueTrial, 0, len(models))
	for i := range models {
		out = append(out, subscription.DueTrial{
			UserID: models[i].ID,
			Record: *fromSubscriptionModel(models[i].Subscription),
		})
	}
	return out, nil
}

func dueTrialsFilter(before time.Time) bson.M {
	return bson.M{
		subscriptionPath(subscription.FieldStatus):          string(subscription.StatusTrial),
		subscriptionPath(subscription.FieldTrialEndDate):    bson.M{"$lte": before.UTC()},
		subscriptionPath(subscription.FieldCheckoutPending): bson.M{"$ne": true},
	}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions per collection.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "googleId", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{
				Keys:    bson.D{{Key: subscriptionPath(subscription.FieldExternalID), Value: 1}},
				Options: options.Index().SetSparse(true),
			},
			{
				Keys: bson.D{
					{Key: subscriptionPath(subscription.FieldStatus), Value: 1},
					{Key: subscriptionPath(subscription.FieldTrialEndDate), Value: 1},
				},
			},
		},
	}
}
