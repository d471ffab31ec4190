package subscription

import (
	"slices"
	"time"
)

// Record is the subscription state stored with a user.
// A user without a subscription has a zero Record with StatusNone.
type Record struct {
	PlanID           string     `json:"plan_id,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
	Status           Status     `json:"status"`
	ExternalID       string     `json:"external_subscription_id,omitempty"`
	CheckoutPending  bool       `json:"checkout_pending,omitempty"`
	TrialStartDate   *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate     *time.Time `json:"trial_end_date,omitempty"`
	BillingStartDate *time.Time `json:"billing_start_date,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
}

// EmptyRecord is the record of a user who never subscribed.
func EmptyRecord() Record {
	return Record{Status: StatusNone}
}

// Field names a stored record attribute.
type Field string

const (
	FieldPlanID           Field = "planId"
	FieldPlanName         Field = "planName"
	FieldStatus           Field = "status"
	FieldExternalID       Field = "externalSubscriptionId"
	FieldCheckoutPending  Field = "checkoutPending"
	FieldTrialStartDate   Field = "trialStartDate"
	FieldTrialEndDate     Field = "trialEndDate"
	FieldBillingStartDate Field = "billingStartDate"
	FieldStartDate        Field = "startDate"
	FieldEndDate          Field = "endDate"
)

// AllFields lists every record field in storage order.
var AllFields = []Field{
	FieldPlanID,
	FieldPlanName,
	FieldStatus,
	FieldExternalID,
	FieldCheckoutPending,
	FieldTrialStartDate,
	FieldTrialEndDate,
	FieldBillingStartDate,
	FieldStartDate,
	FieldEndDate,
}

// Patch is a partial update of a Record. Only the listed fields change;
// their new values are taken from the patch's record.
type Patch struct {
	values Record
	fields []Field
}

// ReplacePatch overwrites every field with rec.
func ReplacePatch(rec Record) Patch {
	return Patch{values: rec, fields: slices.Clone(AllFields)}
}

// NewPatch sets the given fields from rec.
func NewPatch(rec Record, fields ...Field) Patch {
	return Patch{values: rec, fields: slices.Clone(fields)}
}

// StatusPatch changes only the status.
func StatusPatch(s Status) Patch {
	return Patch{values: Record{Status: s}, fields: []Field{FieldStatus}}
}

// Fields returns the fields the patch sets.
func (p Patch) Fields() []Field { return slices.Clone(p.fields) }

// Values returns the record holding the new field values.
func (p Patch) Values() Record { return p.values }

// Has reports whether the patch sets f.
func (p Patch) Has(f Field) bool { return slices.Contains(p.fields, f) }

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool { return len(p.fields) == 0 }

// Apply returns rec with the patch fields overwritten.
func (p Patch) Apply(rec Record) Record {
	v := p.values
	for _, f := range p.fields {
		switch f {
		case FieldPlanID:
			rec.PlanID = v.PlanID
		case FieldPlanName:
			rec.PlanName = v.PlanName
		case FieldStatus:
			rec.Status = v.Status
		case FieldExternalID:
			rec.ExternalID = v.ExternalID
		case FieldCheckoutPending:
			rec.CheckoutPending = v.CheckoutPending
		case FieldTrialStartDate:
			rec.TrialStartDate = cloneTime(v.TrialStartDate)
		case FieldTrialEndDate:
			rec.TrialEndDate = cloneTime(v.TrialEndDate)
		case FieldBillingStartDate:
			rec.BillingStartDate = cloneTime(v.BillingStartDate)
		case FieldStartDate:
			rec.StartDate = cloneTime(v.StartDate)
		case FieldEndDate:
			rec.EndDate = cloneTime(v.EndDate)
		}
	}
	return rec
}

// Clone returns a deep copy of rec.
func (r Record) Clone() Record {
	r.TrialStartDate = cloneTime(r.TrialStartDate)
	r.TrialEndDate = cloneTime(r.TrialEndDate)
	r.BillingStartDate = cloneTime(r.BillingStartDate)
	r.StartDate = cloneTime(r.StartDate)
	r.EndDate = cloneTime(r.EndDate)
	return r
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timePtr(t time.Time) *time.Time { return &t }
