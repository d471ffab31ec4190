package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/trialbill/pkg/logger"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

// Recipient is who a notification is addressed to.
type Recipient struct {
	Email string
	Name  string
}

// RecipientLookup resolves a user ID to a recipient.
type RecipientLookup func(ctx context.Context, userID string) (Recipient, error)

// Notifier sends subscription emails.
type Notifier struct {
	sender  Sender
	lookup  RecipientLookup
	catalog *subscription.Catalog
	config  Config
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

type Option func(*Notifier)

func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithTimeout bounds a single delivery. Default 10s.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// NewNotifier panics if sender or lookup is nil.
func NewNotifier(sender Sender, lookup RecipientLookup, catalog *subscription.Catalog, cfg Config, opts ...Option) *Notifier {
	if sender == nil {
		panic("notify: sender is required")
	}
	if lookup == nil {
		panic("notify: recipient lookup is required")
	}

	n := &Notifier{
		sender:  sender,
		lookup:  lookup,
		catalog: catalog,
		config:  cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OnTransition queues the email for t, if its target status has one.
// It returns immediately.
func (n *Notifier) OnTransition(ctx context.Context, t subscription.Transition) {
	if _, ok := emailKinds[t.To]; !ok {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.logger.ErrorContext(ctx, "notification panicked",
					logger.UserID(t.UserID),
					slog.Any("panic", r),
					logger.Component("notify"),
				)
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.Notify(sendCtx, t); err != nil {
			n.logger.ErrorContext(ctx, "failed to send subscription email",
				logger.UserID(t.UserID),
				slog.String("status", string(t.To)),
				logger.Error(err),
				logger.Component("notify"),
			)
		}
	}()
}

// Notify renders and sends the email for t synchronously.
func (n *Notifier) Notify(ctx context.Context, t subscription.Transition) error {
	kind, ok := emailKinds[t.To]
	if !ok {
		return nil
	}

	to, err := n.lookup(ctx, t.UserID)
	if err != nil {
		return err
	}

	body, err := Render(ctx, kind.body(n.data(to, t.Record)))
	if err != nil {
		return err
	}

	return n.sender.SendEmail(ctx, Message{
		To:       to.Email,
		Subject:  kind.subject,
		BodyHTML: body,
		Tag:      kind.tag,
	})
}

// Wait blocks until queued notifications finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) data(to Recipient, rec subscription.Record) EmailData {
	d := EmailData{
		AppName:     n.config.AppName,
		AppURL:      n.config.AppURL,
		Name:        to.Name,
		PlanName:    rec.PlanName,
		TrialEnds:   formatDate(rec.TrialEndDate),
		NextBilling: formatDate(rec.BillingStartDate),
		PeriodEnds:  formatDate(rec.EndDate),
	}
	if d.Name == "" {
		d.Name = "there"
	}
	if n.catalog != nil {
		if p, ok := n.catalog.Get(rec.PlanID); ok {
			d.Price = formatMoney(p.Price)
			if d.PlanName == "" {
				d.PlanName = p.Name
			}
		}
	}
	return d
}
