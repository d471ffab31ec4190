// Package subscription implements the subscription lifecycle of a user:
// starting a trial on a billing plan, activating it once the trial ends,
// renewing billing cycles and cancelling.
//
// The package is split in two layers. The pure functions BeginTrial,
// Activate, Renew, Cancel and Describe compute windows and transitions on a
// Record without any I/O, so they are deterministic for a given "now".
// Service wraps them with the collaborators a running application needs:
//
//   - Catalog: the validated plan table (built-in or loaded from YAML)
//   - Gateway: the payment provider (Paddle, or a logging dev gateway)
//   - Store: the persistent record, keyed by user ID
//
// Each Service transition performs at most one gateway call and one store
// write. The service does not lock per user; callers must not issue two
// transitions for the same user concurrently.
//
// Errors are tagged with one of ErrValidation, ErrGateway, ErrInvalidState or
// ErrStore and joined with the specific cause:
//
//	rec, err := svc.Cancel(ctx, userID)
//	switch subscription.KindOf(err) {
//	case subscription.KindInvalidState:
//		// already cancelled or never subscribed
//	case subscription.KindGateway:
//		// provider refused or is down, record untouched
//	}
//
// Trials that reach their end date are promoted to active either by the
// provider's activation webhook (HandleWebhook) or by ReconcileTrials, which
// the Reconciler runs on an interval.
package subscription
