package subscription

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const day = 24 * time.Hour

// transitions lists the allowed status changes.
var transitions = map[Status][]Status{
	StatusNone:      {StatusTrial},
	StatusTrial:     {StatusActive, StatusCancelled},
	StatusActive:    {StatusCancelled},
	StatusCancelled: {StatusTrial},
}

// CanTransition reports whether a record in status from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[normalize(from)] {
		if s == to {
			return true
		}
	}
	return false
}

func normalize(s Status) Status {
	if s == "" {
		return StatusNone
	}
	return s
}

func invalidState(from, to Status) error {
	return errors.Join(ErrInvalidState, fmt.Errorf("cannot move from %q to %q", normalize(from), to))
}

// BeginTrial computes a new trial record for plan starting at now.
// The trial lasts trialDays; the first billing cycle starts when it ends and
// runs for BillingCycle days. Dates have millisecond precision so they
// survive storage unchanged. The external subscription ID is left empty for
// the caller to fill in once the gateway has issued one.
func BeginTrial(plan Plan, now time.Time, trialDays int) (Record, error) {
	if trialDays < 0 {
		return Record{}, errors.Join(ErrValidation, ErrNegativeTrialDays)
	}
	if plan.ID == "" {
		return Record{}, errors.Join(ErrValidation, ErrMissingPlanID)
	}

	start := now.UTC().Truncate(time.Millisecond)
	trialEnd := start.AddDate(0, 0, trialDays)
	billingStart := trialEnd
	end := billingStart.AddDate(0, 0, BillingCycle)

	return Record{
		PlanID:           plan.ID,
		PlanName:         plan.Name,
		Status:           StatusTrial,
		TrialStartDate:   timePtr(start),
		TrialEndDate:     timePtr(trialEnd),
		BillingStartDate: timePtr(billingStart),
		StartDate:        timePtr(billingStart),
		EndDate:          timePtr(end),
	}, nil
}

// Activate moves a trial to active. Unless force is set the trial must have
// ended at now and its checkout must be complete. Dates are kept: the first
// cycle was fixed when the trial began.
func Activate(rec Record, now time.Time, force bool) (Record, error) {
	if !CanTransition(rec.Status, StatusActive) {
		return rec, invalidState(rec.Status, StatusActive)
	}
	if !force {
		if rec.CheckoutPending {
			return rec, errors.Join(ErrInvalidState, ErrCheckoutPending)
		}
		if rec.TrialEndDate == nil {
			return rec, errors.Join(ErrInvalidState, ErrTrialNotEnded)
		}
		if now.Before(*rec.TrialEndDate) {
			return rec, errors.Join(ErrInvalidState, ErrTrialNotEnded)
		}
	}

	out := rec.Clone()
	out.Status = StatusActive
	return out, nil
}

// Renew advances an active record to its next billing cycle.
func Renew(rec Record) (Record, error) {
	if normalize(rec.Status) != StatusActive {
		return rec, errors.Join(ErrInvalidState, fmt.Errorf("cannot renew %q subscription", normalize(rec.Status)))
	}
	if rec.EndDate == nil {
		return rec, errors.Join(ErrValidation, errors.New("active record has no end date"))
	}

	out := rec.Clone()
	out.StartDate = timePtr(*rec.EndDate)
	out.EndDate = timePtr(rec.EndDate.AddDate(0, 0, BillingCycle))
	return out, nil
}

// Cancel marks a trial or active record cancelled. Dates are untouched.
// A record that is already cancelled, or never subscribed, is rejected.
func Cancel(rec Record) (Record, error) {
	if !CanTransition(rec.Status, StatusCancelled) {
		return rec, invalidState(rec.Status, StatusCancelled)
	}
	out := rec.Clone()
	out.Status = StatusCancelled
	return out, nil
}

// Description is the display state derived from a record at a point in time.
type Description struct {
	Status           Status     `json:"status"`
	DisplayStatus    string     `json:"display_status"`
	PlanID           string     `json:"plan_id,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
	IsTrialActive    bool       `json:"is_trial_active"`
	TrialDaysLeft    int        `json:"trial_days_left"`
	BillingDaysLeft  int        `json:"billing_days_left"`
	TrialStartDate   *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate     *time.Time `json:"trial_end_date,omitempty"`
	BillingStartDate *time.Time `json:"billing_start_date,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
}

// Describe derives the display state of rec at now. It has no side effects
// and does not reconcile: an ended trial is still reported as StatusTrial.
func Describe(rec Record, now time.Time) Description {
	status := normalize(rec.Status)
	d := Description{
		Status:           status,
		DisplayStatus:    displayStatus(status),
		PlanID:           rec.PlanID,
		PlanName:         rec.PlanName,
		TrialStartDate:   cloneTime(rec.TrialStartDate),
		TrialEndDate:     cloneTime(rec.TrialEndDate),
		BillingStartDate: cloneTime(rec.BillingStartDate),
		StartDate:        cloneTime(rec.StartDate),
		EndDate:          cloneTime(rec.EndDate),
	}

	switch status {
	case StatusTrial:
		if rec.TrialEndDate != nil {
			d.IsTrialActive = now.Before(*rec.TrialEndDate)
			d.TrialDaysLeft = daysUntil(*rec.TrialEndDate, now)
		}
	case StatusActive:
		if rec.EndDate != nil {
			d.BillingDaysLeft = daysUntil(*rec.EndDate, now)
		}
	}
	return d
}

func displayStatus(s Status) string {
	switch s {
	case StatusTrial:
		return "FREE TRIAL"
	case StatusNone:
		return "INACTIVE"
	}
	// Casers are stateful and must not be shared between goroutines.
	return cases.Upper(language.Und).String(string(s))
}

// daysUntil rounds the remaining time up to whole days, never below zero.
func daysUntil(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	days := d / day
	if d%day != 0 {
		days++
	}
	return int(days)
}
