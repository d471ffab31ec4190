package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

const (
	webhookApplied = "applied"
	webhookIgnored = "ignored"
	webhookFailed  = "error"
)

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(ctx, payload, signature)
	if err != nil {
		s.metrics.webhook("unknown", webhookFailed)
		if errors.Is(err, ErrWebhookVerification) || errors.Is(err, ErrMalformedWebhook) {
			return errors.Join(ErrValidation, err)
		}
		return errors.Join(ErrGateway, err)
	}

	log := s.logger.With(
		logger.EventType(string(event.Type)),
		slog.String("provider_event", event.ProviderEvent),
		slog.String("external_id", event.SubscriptionID),
		logger.Component("subscription"),
	)

	var applied bool
	switch event.Type {
	case EventSubscriptionCreated:
		applied, err = s.bindExternalID(ctx, event)
	case EventSubscriptionActivated:
		applied, err = s.applyWebhookTransition(ctx, event, func(rec Record) (Record, error) {
			return Activate(rec, s.now(), true)
		}, StatusActive)
	case EventSubscriptionCancelled:
		applied, err = s.applyWebhookTransition(ctx, event, func(rec Record) (Record, error) {
			return Cancel(rec)
		}, StatusCancelled)
	case EventPaymentSucceeded:
		applied, err = s.applyPayment(ctx, event)
	default:
		log.DebugContext(ctx, "ignoring billing event")
	}

	switch {
	case err != nil:
		s.metrics.webhook(event.Type, webhookFailed)
		log.ErrorContext(ctx, "failed to apply billing event", logger.Error(err))
		return err
	case applied:
		s.metrics.webhook(event.Type, webhookApplied)
	default:
		s.metrics.webhook(event.Type, webhookIgnored)
	}
	return nil
}

// owner finds the user an event refers to by external ID. With byUser set it
// falls back to the user ID attached at checkout; transitions never do, so an
// event about an old subscription cannot touch the user's current one.
func (s *service) owner(ctx context.Context, event *WebhookEvent, byUser bool) (string, *Record, error) {
	for _, id := range []string{event.SubscriptionID, event.CheckoutID} {
		if id == "" {
			continue
		}
		userID, rec, err := s.store.FindByExternalID(ctx, id)
		switch {
		case err == nil:
			return userID, rec, nil
		case !errors.Is(err, ErrRecordNotFound):
			return "", nil, errors.Join(ErrStore, err)
		}
	}

	if byUser && event.UserID != "" && validateUserID(event.UserID) == nil {
		rec, err := s.read(ctx, event.UserID)
		if err != nil {
			return "", nil, err
		}
		return event.UserID, rec, nil
	}
	return "", nil, errors.Join(ErrStore, ErrRecordNotFound)
}

// bindExternalID replaces the checkout ID stored at BeginTrial with the
// subscription ID the gateway issued once payment details were collected.
func (s *service) bindExternalID(ctx context.Context, event *WebhookEvent) (bool, error) {
	if event.SubscriptionID == "" {
		return false, nil
	}
	userID, rec, err := s.owner(ctx, event, true)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !rec.Status.IsLive() || rec.ExternalID == event.SubscriptionID {
		return false, nil
	}
	if event.CheckoutID != "" && rec.ExternalID != "" && rec.ExternalID != event.CheckoutID {
		// Belongs to an older checkout of the same user.
		return false, nil
	}

	patch := NewPatch(Record{ExternalID: event.SubscriptionID}, FieldExternalID, FieldCheckoutPending)
	if err := s.store.Write(ctx, userID, patch); err != nil {
		return false, errors.Join(ErrStore, err)
	}
	return true, nil
}

func (s *service) applyWebhookTransition(ctx context.Context, event *WebhookEvent, fn func(Record) (Record, error), to Status) (bool, error) {
	userID, cur, err := s.owner(ctx, event, false)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cur.Status == to || !CanTransition(cur.Status, to) {
		return false, nil
	}

	rec, err := fn(*cur)
	if err != nil {
		return false, err
	}
	patch := StatusPatch(to)
	if to == StatusActive {
		patch = activationPatch(*cur, event)
	}
	if err := s.store.Write(ctx, userID, patch); err != nil {
		return false, errors.Join(ErrStore, err)
	}
	s.applied(ctx, userID, cur.Status, patch.Apply(rec), s.now(), sourceWebhook)
	return true, nil
}

// applyPayment renews an active record whose cycle has elapsed. A payment on
// a trial means the trial is over and the first cycle was charged.
func (s *service) applyPayment(ctx context.Context, event *WebhookEvent) (bool, error) {
	userID, cur, err := s.owner(ctx, event, false)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := s.now()
	switch cur.Status {
	case StatusTrial:
		rec, err := Activate(*cur, now, true)
		if err != nil {
			return false, err
		}
		patch := activationPatch(*cur, event)
		if err := s.store.Write(ctx, userID, patch); err != nil {
			return false, errors.Join(ErrStore, err)
		}
		s.applied(ctx, userID, cur.Status, patch.Apply(rec), now, sourceWebhook)
		return true, nil

	case StatusActive:
		if cur.EndDate == nil || now.Before(*cur.EndDate) {
			return false, nil
		}
		rec, err := Renew(*cur)
		if err != nil {
			return false, err
		}
		if err := s.store.Write(ctx, userID, NewPatch(rec, FieldStartDate, FieldEndDate)); err != nil {
			return false, errors.Join(ErrStore, err)
		}
		return true, nil
	}
	return false, nil
}

// activationPatch marks a record active. A record still waiting on checkout
// is bound to the subscription the event names, since the gateway only
// reports activations for completed checkouts.
func activationPatch(cur Record, event *WebhookEvent) Patch {
	rec := Record{Status: StatusActive}
	fields := []Field{FieldStatus, FieldCheckoutPending}
	if cur.CheckoutPending && event.SubscriptionID != "" {
		rec.ExternalID = event.SubscriptionID
		fields = append(fields, FieldExternalID)
	}
	return NewPatch(rec, fields...)
}
