package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

type userModel struct {
	ID           string             `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"passwordHash,omitempty"`
	GoogleID     string             `bson:"googleId,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
	Subscription *subscriptionModel `bson:"subscription,omitempty"`
}

// subscriptionModel field names match subscription.Field values.
type subscriptionModel struct {
	PlanID           string     `bson:"planId,omitempty"`
	PlanName         string     `bson:"planName,omitempty"`
	Status           string     `bson:"status"`
	ExternalID       string     `bson:"externalSubscriptionId,omitempty"`
	CheckoutPending  bool       `bson:"checkoutPending,omitempty"`
	TrialStartDate   *time.Time `bson:"trialStartDate,omitempty"`
	TrialEndDate     *time.Time `bson:"trialEndDate,omitempty"`
	BillingStartDate *time.Time `bson:"billingStartDate,omitempty"`
	StartDate        *time.Time `bson:"startDate,omitempty"`
	EndDate          *time.Time `bson:"endDate,omitempty"`
}

func toUserModel(u *account.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func fromUserModel(m *userModel) *account.User {
	return &account.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		GoogleID:     m.GoogleID,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

// fromSubscriptionModel maps a missing sub-document to an empty record.
func fromSubscriptionModel(m *subscriptionModel) *subscription.Record {
	if m == nil {
		rec := subscription.EmptyRecord()
		return &rec
	}

	status := subscription.Status(m.Status)
	if status == "" {
		status = subscription.StatusNone
	}
	return &subscription.Record{
		PlanID:           m.PlanID,
		PlanName:         m.PlanName,
		Status:           status,
		ExternalID:       m.ExternalID,
		CheckoutPending:  m.CheckoutPending,
		TrialStartDate:   utc(m.TrialStartDate),
		TrialEndDate:     utc(m.TrialEndDate),
		BillingStartDate: utc(m.BillingStartDate),
		StartDate:        utc(m.StartDate),
		EndDate:          utc(m.EndDate),
	}
}

// patchUpdate builds the $set document for a partial record write.
// Unset dates are stored as null.
func patchUpdate(patch subscription.Patch, now time.Time) bson.M {
	v := patch.Values()
	set := bson.M{"updatedAt": now.UTC()}

	for _, f := range patch.Fields() {
		var value any
		switch f {
		case subscription.FieldPlanID:
			value = v.PlanID
		case subscription.FieldPlanName:
			value = v.PlanName
		case subscription.FieldStatus:
			value = string(v.Status)
		case subscription.FieldExternalID:
			value = v.ExternalID
		case subscription.FieldCheckoutPending:
			value = v.CheckoutPending
		case subscription.FieldTrialStartDate:
			value = utc(v.TrialStartDate)
		case subscription.FieldTrialEndDate:
			value = utc(v.TrialEndDate)
		case subscription.FieldBillingStartDate:
			value = utc(v.BillingStartDate)
		case subscription.FieldStartDate:
			value = utc(v.StartDate)
		case subscription.FieldEndDate:
			value = utc(v.EndDate)
		default:
			continue
		}
		set[subscriptionPath(f)] = value
	}

	return bson.M{"$set": set}
}

func subscriptionPath(f subscription.Field) string {
	return "subscription." + string(f)
}

// utc normalizes t to the millisecond UTC value BSON dates hold.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
