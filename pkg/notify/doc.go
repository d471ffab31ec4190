// Package notify emails users when their subscription changes state.
//
// Notifier.OnTransition is a subscription.TransitionHook. It renders a
// message for trial start, activation and cancellation and sends it in the
// background through a Sender: Postmark in production, DevSender (which only
// logs) otherwise. Delivery failures are logged and never affect the
// transition that triggered them.
package notify
