package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

// Service applies lifecycle transitions against the gateway and the store.
//
// Transitions for the same user must not run concurrently; the service keeps
// no per-user lock.
type Service interface {
	// Plans lists the catalog.
	Plans() []Plan

	// Get returns the stored record of a user.
	Get(ctx context.Context, userID string) (*Record, error)

	// Describe returns the display state of a user's subscription.
	Describe(ctx context.Context, userID string) (*Description, error)

	// BeginTrial subscribes the user to planID with the plan's trial.
	BeginTrial(ctx context.Context, userID, planID string) (*TrialStarted, error)

	// Cancel cancels the user's live subscription immediately.
	Cancel(ctx context.Context, userID string) (*Record, error)

	// HandleWebhook applies a verified gateway notification.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// ReconcileTrials activates every trial that has ended and reports how
	// many were activated. Trials whose checkout is still pending are left
	// for the gateway's webhooks.
	ReconcileTrials(ctx context.Context) (int, error)
}

// TrialStarted is the result of a successful BeginTrial.
type TrialStarted struct {
	Record      Record
	Description Description
	CheckoutURL string
}

const (
	sourceAPI        = "api"
	sourceWebhook    = "webhook"
	sourceReconciler = "reconciler"

	defaultBatch = 100
)

type service struct {
	catalog     *Catalog
	gateway     Gateway
	store       Store
	now         func() time.Time
	logger      *slog.Logger
	metrics     *Metrics
	hooks       []TransitionHook
	emailOf     EmailResolver
	totalCycles int
	batch       int
}

// NewService creates a Service. Panics if catalog, gateway or store is nil.
func NewService(catalog *Catalog, gateway Gateway, store Store, opts ...ServiceOption) Service {
	if catalog == nil {
		panic("subscription: Catalog is required")
	}
	if gateway == nil {
		panic("subscription: Gateway is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &service{
		catalog: catalog,
		gateway: gateway,
		store:   store,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		batch:   defaultBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Plans() []Plan {
	return s.catalog.Plans()
}

func (s *service) Get(ctx context.Context, userID string) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.read(ctx, userID)
}

func (s *service) Describe(ctx context.Context, userID string) (*Description, error) {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := Describe(*rec, s.now())
	return &d, nil
}

func (s *service) BeginTrial(ctx context.Context, userID, planID string) (*TrialStarted, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return nil, errors.Join(ErrValidation, ErrMissingPlanID)
	}
	plan, ok := s.catalog.Get(planID)
	if !ok {
		return nil, errors.Join(ErrValidation, ErrPlanNotFound)
	}

	cur, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, StatusTrial) {
		return nil, invalidState(cur.Status, StatusTrial)
	}

	now := s.now()
	rec, err := BeginTrial(plan, now, plan.TrialDays)
	if err != nil {
		return nil, err
	}

	req := CreateRequest{
		PlanID:          plan.GatewayPriceID(),
		UserID:          userID,
		BillingStartsAt: *rec.BillingStartDate,
		TotalCycles:     s.totalCycles,
	}
	if s.emailOf != nil {
		email, err := s.emailOf(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "billing email lookup failed",
				logger.UserID(userID),
				logger.Error(err),
				logger.Component("subscription"),
			)
		}
		req.Email = email
	}

	created, err := s.gateway.CreateSubscription(ctx, req)
	s.metrics.gatewayCall("create", err)
	if err != nil {
		return nil, errors.Join(ErrGateway, err)
	}
	rec.ExternalID = created.ID
	rec.CheckoutPending = created.Pending

	if err := s.store.Write(ctx, userID, ReplacePatch(rec)); err != nil {
		// The gateway subscription exists but nothing references it.
		cancelErr := s.gateway.CancelSubscription(context.WithoutCancel(ctx), created.ID, true)
		s.metrics.gatewayCall("cancel", cancelErr)
		if cancelErr != nil {
			s.logger.ErrorContext(ctx, "failed to cancel orphaned gateway subscription",
				logger.UserID(userID),
				slog.String("external_id", created.ID),
				logger.Errors(err, cancelErr),
				logger.Component("subscription"),
			)
		}
		return nil, errors.Join(ErrStore, err)
	}

	s.applied(ctx, userID, cur.Status, rec, now, sourceAPI)

	return &TrialStarted{
		Record:      rec,
		Description: Describe(rec, now),
		CheckoutURL: created.CheckoutURL,
	}, nil
}

func (s *service) Cancel(ctx context.Context, userID string) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	cur, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec, err := Cancel(*cur)
	if err != nil {
		return nil, err
	}

	if cur.ExternalID != "" {
		err := s.gateway.CancelSubscription(ctx, cur.ExternalID, true)
		s.metrics.gatewayCall("cancel", err)
		if err != nil {
			return nil, errors.Join(ErrGateway, err)
		}
	}

	if err := s.store.Write(ctx, userID, StatusPatch(StatusCancelled)); err != nil {
		s.logger.ErrorContext(ctx, "gateway subscription cancelled but record not updated",
			logger.UserID(userID),
			slog.String("external_id", cur.ExternalID),
			logger.Error(err),
			logger.Component("subscription"),
		)
		return nil, errors.Join(ErrStore, err)
	}

	s.applied(ctx, userID, cur.Status, rec, s.now(), sourceAPI)
	return &rec, nil
}

func (s *service) ReconcileTrials(ctx context.Context) (int, error) {
	now := s.now()
	activated := 0
	for {
		due, err := s.store.ListDueTrials(ctx, now, s.batch)
		if err != nil {
			return activated, errors.Join(ErrStore, err)
		}

		var errs []error
		n := 0
		for _, d := range due {
			rec, err := Activate(d.Record, now, false)
			if err != nil {
				// Changed since it was listed.
				continue
			}
			if err := s.store.Write(ctx, d.UserID, StatusPatch(StatusActive)); err != nil {
				errs = append(errs, err)
				continue
			}
			n++
			s.applied(ctx, d.UserID, d.Record.Status, rec, now, sourceReconciler)
		}
		activated += n
		s.metrics.activated(n)

		if len(errs) > 0 {
			s.metrics.reconcileFailed()
			return activated, errors.Join(ErrStore, errors.Join(errs...))
		}
		if len(due) < s.batch || n == 0 {
			return activated, nil
		}
		if err := ctx.Err(); err != nil {
			return activated, err
		}
	}
}

func (s *service) read(ctx context.Context, userID string) (*Record, error) {
	rec, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if rec.Status == "" {
		rec.Status = StatusNone
	}
	return rec, nil
}

// applied records metrics and runs hooks for a stored transition.
func (s *service) applied(ctx context.Context, userID string, from Status, rec Record, at time.Time, source string) {
	from = normalize(from)
	s.metrics.transition(from, rec.Status, source)
	s.logger.InfoContext(ctx, "subscription transition",
		logger.UserID(userID),
		slog.String("from", string(from)),
		slog.String("to", string(rec.Status)),
		slog.String("source", source),
		logger.Component("subscription"),
	)

	t := Transition{UserID: userID, From: from, To: rec.Status, Record: rec.Clone(), At: at}
	for _, h := range s.hooks {
		s.runHook(ctx, h, t)
	}
}

func (s *service) runHook(ctx context.Context, h TransitionHook, t Transition) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "transition hook panicked",
				logger.UserID(t.UserID),
				slog.Any("panic", r),
				logger.Component("subscription"),
			)
		}
	}()
	h(ctx, t)
}

func validateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Join(ErrValidation, ErrInvalidUserID)
	}
	return nil
}
