package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var starter = subscription.Plan{
	ID:        "starter",
	Name:      "Starter Plan",
	Price:     subscription.Money{Amount: 10000, Currency: "INR"},
	TrialDays: 14,
}

func trialRecord(t *testing.T, start time.Time) subscription.Record {
	t.Helper()
	rec, err := subscription.BeginTrial(starter, start, 14)
	require.NoError(t, err)
	rec.ExternalID = "sub_1"
	return rec
}

func TestBeginTrial(t *testing.T) {
	t.Parallel()

	t.Run("computes trial and first cycle windows", func(t *testing.T) {
		t.Parallel()

		rec, err := subscription.BeginTrial(starter, date(2024, 1, 1), 14)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusTrial, rec.Status)
		assert.Equal(t, "starter", rec.PlanID)
		assert.Equal(t, "Starter Plan", rec.PlanName)
		assert.Empty(t, rec.ExternalID)
		assert.Equal(t, date(2024, 1, 1), *rec.TrialStartDate)
		assert.Equal(t, date(2024, 1, 15), *rec.TrialEndDate)
		assert.Equal(t, date(2024, 1, 15), *rec.BillingStartDate)
		assert.Equal(t, date(2024, 1, 15), *rec.StartDate)
		assert.Equal(t, date(2024, 2, 14), *rec.EndDate)
	})

	t.Run("window arithmetic holds for any trial length", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 3, 7, 13, 45, 0, 0, time.UTC)
		for days := 0; days <= 90; days++ {
			rec, err := subscription.BeginTrial(starter, now, days)
			require.NoError(t, err)

			assert.Equal(t, now.AddDate(0, 0, days), *rec.TrialEndDate, "trial days %d", days)
			assert.Equal(t, *rec.TrialEndDate, *rec.BillingStartDate, "trial days %d", days)
			assert.Equal(t, rec.BillingStartDate.AddDate(0, 0, subscription.BillingCycle), *rec.EndDate, "trial days %d", days)
		}
	})

	t.Run("zero trial days yields an empty trial window", func(t *testing.T) {
		t.Parallel()

		now := date(2024, 1, 1)
		rec, err := subscription.BeginTrial(starter, now, 0)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusTrial, rec.Status)
		assert.Equal(t, now, *rec.TrialEndDate)
		assert.Equal(t, now, *rec.BillingStartDate)
		assert.False(t, subscription.Describe(rec, now).IsTrialActive)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		t.Parallel()

		loc := time.FixedZone("IST", 5*3600+1800)
		rec, err := subscription.BeginTrial(starter, time.Date(2024, 1, 1, 5, 30, 0, 0, loc), 14)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 1, 1), *rec.TrialStartDate)
		assert.Equal(t, time.UTC, rec.TrialEndDate.Location())
	})

	t.Run("keeps millisecond precision", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 1, 1, 9, 30, 15, 123456789, time.UTC)
		rec, err := subscription.BeginTrial(starter, now, 14)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 15, 123000000, time.UTC), *rec.TrialStartDate)
		assert.Equal(t, 14*24*time.Hour, rec.TrialEndDate.Sub(*rec.TrialStartDate))
		assert.Zero(t, rec.EndDate.Nanosecond()%int(time.Millisecond))
	})

	t.Run("rejects negative trial days", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.BeginTrial(starter, date(2024, 1, 1), -1)
		require.Error(t, err)
		assert.ErrorIs(t, err, subscription.ErrValidation)
		assert.ErrorIs(t, err, subscription.ErrNegativeTrialDays)
	})

	t.Run("rejects plan without id", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.BeginTrial(subscription.Plan{Name: "x"}, date(2024, 1, 1), 14)
		assert.ErrorIs(t, err, subscription.ErrValidation)
	})
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	t.Run("trial in progress", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		d := subscription.Describe(rec, date(2024, 1, 10))

		assert.True(t, d.IsTrialActive)
		assert.Equal(t, 5, d.TrialDaysLeft)
		assert.Equal(t, 0, d.BillingDaysLeft)
		assert.Equal(t, subscription.StatusTrial, d.Status)
		assert.Equal(t, "FREE TRIAL", d.DisplayStatus)
		assert.Equal(t, "Starter Plan", d.PlanName)
		assert.Equal(t, date(2024, 1, 15), *d.TrialEndDate)
	})

	t.Run("partial days round up", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		d := subscription.Describe(rec, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, 5, d.TrialDaysLeft)

		d = subscription.Describe(rec, time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC))
		assert.Equal(t, 1, d.TrialDaysLeft)
		assert.True(t, d.IsTrialActive)
	})

	t.Run("ended trial is not reconciled", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		d := subscription.Describe(rec, date(2024, 1, 20))

		assert.False(t, d.IsTrialActive)
		assert.Equal(t, 0, d.TrialDaysLeft)
		assert.Equal(t, subscription.StatusTrial, d.Status)
		assert.Equal(t, subscription.StatusTrial, rec.Status)
	})

	t.Run("trial ends exactly now", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		d := subscription.Describe(rec, date(2024, 1, 15))
		assert.False(t, d.IsTrialActive)
		assert.Equal(t, 0, d.TrialDaysLeft)
	})

	t.Run("active reports billing days", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		rec.Status = subscription.StatusActive
		d := subscription.Describe(rec, date(2024, 2, 1))

		assert.Equal(t, "ACTIVE", d.DisplayStatus)
		assert.Equal(t, 13, d.BillingDaysLeft)
		assert.Equal(t, 0, d.TrialDaysLeft)
		assert.False(t, d.IsTrialActive)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		rec.Status = subscription.StatusCancelled
		d := subscription.Describe(rec, date(2024, 1, 5))

		assert.Equal(t, "CANCELLED", d.DisplayStatus)
		assert.Equal(t, 0, d.BillingDaysLeft)
		assert.Equal(t, 0, d.TrialDaysLeft)
		assert.False(t, d.IsTrialActive)
	})

	t.Run("no subscription", func(t *testing.T) {
		t.Parallel()

		d := subscription.Describe(subscription.Record{}, date(2024, 1, 5))
		assert.Equal(t, subscription.StatusNone, d.Status)
		assert.Equal(t, "INACTIVE", d.DisplayStatus)
		assert.Nil(t, d.TrialEndDate)
	})

	t.Run("is deterministic and does not mutate", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		before := rec.Clone()
		now := date(2024, 1, 9)

		d1 := subscription.Describe(rec, now)
		*d1.TrialEndDate = date(2030, 1, 1)
		d2 := subscription.Describe(rec, now)

		assert.Equal(t, before, rec)
		assert.Equal(t, date(2024, 1, 15), *d2.TrialEndDate)
		assert.Equal(t, 6, d2.TrialDaysLeft)
	})
}

func TestCancel(t *testing.T) {
	t.Parallel()

	t.Run("trial and active can be cancelled", func(t *testing.T) {
		t.Parallel()

		for _, status := range []subscription.Status{subscription.StatusTrial, subscription.StatusActive} {
			rec := trialRecord(t, date(2024, 1, 1))
			rec.Status = status

			out, err := subscription.Cancel(rec)
			require.NoError(t, err)
			assert.Equal(t, subscription.StatusCancelled, out.Status)
			assert.Equal(t, rec.EndDate, out.EndDate)
			assert.Equal(t, rec.TrialEndDate, out.TrialEndDate)
			assert.Equal(t, status, rec.Status, "input must not change")
		}
	})

	t.Run("cancelled record is rejected", func(t *testing.T) {
		t.Parallel()

		rec := trialRecord(t, date(2024, 1, 1))
		rec.Status = subscription.StatusCancelled

		out, err := subscription.Cancel(rec)
		require.Error(t, err)
		assert.ErrorIs(t, err, subscription.ErrInvalidState)
		assert.Equal(t, rec, out)
	})

	t.Run("record without subscription is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.Cancel(subscription.EmptyRecord())
		assert.ErrorIs(t, err, subscription.ErrInvalidState)
	})
}

func TestActivate(t *testing.T) {
	t.Parallel()

	rec := trialRecord(t, date(2024, 1, 1))

	t.Run("before trial end", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.Activate(rec, date(2024, 1, 10), false)
		assert.ErrorIs(t, err, subscription.ErrInvalidState)
		assert.ErrorIs(t, err, subscription.ErrTrialNotEnded)
	})

	t.Run("at trial end", func(t *testing.T) {
		t.Parallel()

		out, err := subscription.Activate(rec, date(2024, 1, 15), false)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, out.Status)
		assert.Equal(t, rec.StartDate, out.StartDate)
		assert.Equal(t, rec.EndDate, out.EndDate)
	})

	t.Run("forced by gateway", func(t *testing.T) {
		t.Parallel()

		out, err := subscription.Activate(rec, date(2024, 1, 2), true)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, out.Status)
	})

	t.Run("pending checkout needs the gateway", func(t *testing.T) {
		t.Parallel()

		pending := rec.Clone()
		pending.CheckoutPending = true
		_, err := subscription.Activate(pending, date(2024, 2, 1), false)
		assert.ErrorIs(t, err, subscription.ErrInvalidState)
		assert.ErrorIs(t, err, subscription.ErrCheckoutPending)

		out, err := subscription.Activate(pending, date(2024, 2, 1), true)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, out.Status)
	})

	t.Run("only trials", func(t *testing.T) {
		t.Parallel()

		cancelled := rec.Clone()
		cancelled.Status = subscription.StatusCancelled
		_, err := subscription.Activate(cancelled, date(2024, 2, 1), true)
		assert.ErrorIs(t, err, subscription.ErrInvalidState)
	})
}

func TestRenew(t *testing.T) {
	t.Parallel()

	rec := trialRecord(t, date(2024, 1, 1))
	rec.Status = subscription.StatusActive

	out, err := subscription.Renew(rec)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 14), *out.StartDate)
	assert.Equal(t, date(2024, 3, 15), *out.EndDate)
	assert.Equal(t, date(2024, 2, 14), *rec.EndDate, "input must not change")

	_, err = subscription.Renew(trialRecord(t, date(2024, 1, 1)))
	assert.ErrorIs(t, err, subscription.ErrInvalidState)
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, subscription.CanTransition(subscription.StatusNone, subscription.StatusTrial))
	assert.True(t, subscription.CanTransition("", subscription.StatusTrial))
	assert.True(t, subscription.CanTransition(subscription.StatusCancelled, subscription.StatusTrial))
	assert.False(t, subscription.CanTransition(subscription.StatusActive, subscription.StatusTrial))
	assert.False(t, subscription.CanTransition(subscription.StatusCancelled, subscription.StatusCancelled))
	assert.False(t, subscription.CanTransition(subscription.StatusNone, subscription.StatusActive))
}
