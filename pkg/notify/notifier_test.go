package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialbill/pkg/notify"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

const userID = "4f1c2a52-1d5e-4b7e-9a51-2f1b0f6f1a11"

func lookupJane(context.Context, string) (notify.Recipient, error) {
	return notify.Recipient{Email: "jane@example.com", Name: "Jane"}, nil
}

func trialTransition(t *testing.T) subscription.Transition {
	t.Helper()

	plan, ok := testCatalog(t).Get("starter")
	require.True(t, ok)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec, err := subscription.BeginTrial(plan, start, 14)
	require.NoError(t, err)
	return subscription.Transition{UserID: userID, From: subscription.StatusNone, To: subscription.StatusTrial, Record: rec, At: start}
}

func testCatalog(t *testing.T) *subscription.Catalog {
	t.Helper()

	catalog, err := subscription.NewCatalog(subscription.DefaultPlans()...)
	require.NoError(t, err)
	return catalog
}

func newNotifier(t *testing.T, sender notify.Sender, lookup notify.RecipientLookup) *notify.Notifier {
	t.Helper()
	return notify.NewNotifier(sender, lookup, testCatalog(t), notify.Config{AppName: "TrialBill", AppURL: "https://app.example.com"})
}

func TestNotifier(t *testing.T) {
	t.Parallel()

	t.Run("trial started email", func(t *testing.T) {
		t.Parallel()

		sender := notify.NewDevSender(nil)
		n := newNotifier(t, sender, lookupJane)

		n.OnTransition(context.Background(), trialTransition(t))
		n.Wait()

		sent := sender.Sent()
		require.Len(t, sent, 1)
		msg := sent[0]
		assert.Equal(t, "jane@example.com", msg.To)
		assert.Equal(t, "trial_started", msg.Tag)
		assert.Contains(t, msg.BodyHTML, "Hi Jane")
		assert.Contains(t, msg.BodyHTML, "Starter Plan")
		assert.Contains(t, msg.BodyHTML, "January 15, 2024")
		assert.Contains(t, msg.BodyHTML, "INR 100.00")
		assert.Contains(t, msg.BodyHTML, `href="https://app.example.com"`)
	})

	t.Run("activation and cancellation", func(t *testing.T) {
		t.Parallel()

		sender := notify.NewDevSender(nil)
		n := newNotifier(t, sender, lookupJane)

		tr := trialTransition(t)
		tr.From, tr.To = subscription.StatusTrial, subscription.StatusActive
		require.NoError(t, n.Notify(context.Background(), tr))

		tr.From, tr.To = subscription.StatusActive, subscription.StatusCancelled
		require.NoError(t, n.Notify(context.Background(), tr))

		sent := sender.Sent()
		require.Len(t, sent, 2)
		assert.Equal(t, "subscription_activated", sent[0].Tag)
		assert.Contains(t, sent[0].BodyHTML, "February 14, 2024")
		assert.Equal(t, "subscription_cancelled", sent[1].Tag)
		assert.Contains(t, sent[1].BodyHTML, "Starter Plan subscription has been cancelled")
		assert.Contains(t, sent[1].BodyHTML, "Hi Jane")
		assert.Contains(t, sent[1].BodyHTML, "The TrialBill team")
	})

	t.Run("unsafe app links are replaced", func(t *testing.T) {
		t.Parallel()

		sender := notify.NewDevSender(nil)
		n := notify.NewNotifier(sender, lookupJane, testCatalog(t), notify.Config{AppName: "TrialBill", AppURL: "javascript:alert(1)"})
		require.NoError(t, n.Notify(context.Background(), trialTransition(t)))

		body := sender.Sent()[0].BodyHTML
		assert.NotContains(t, body, "javascript:")
		assert.Contains(t, body, `href="about:invalid#TemplFailedSanitizationURL"`)
	})

	t.Run("names are escaped", func(t *testing.T) {
		t.Parallel()

		sender := notify.NewDevSender(nil)
		n := newNotifier(t, sender, func(context.Context, string) (notify.Recipient, error) {
			return notify.Recipient{Email: "x@example.com", Name: "<script>"}, nil
		})
		require.NoError(t, n.Notify(context.Background(), trialTransition(t)))
		assert.NotContains(t, sender.Sent()[0].BodyHTML, "<script>")
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		t.Parallel()

		sender := notify.NewDevSender(nil)
		n := newNotifier(t, sender, func(context.Context, string) (notify.Recipient, error) {
			return notify.Recipient{}, errors.New("user store down")
		})

		assert.NotPanics(t, func() {
			n.OnTransition(context.Background(), trialTransition(t))
			n.Wait()
		})
		assert.Empty(t, sender.Sent())
	})

	t.Run("statuses without email", func(t *testing.T) {
		t.Parallel()

		sender := notify.NewDevSender(nil)
		n := newNotifier(t, sender, lookupJane)
		tr := trialTransition(t)
		tr.To = subscription.StatusNone
		n.OnTransition(context.Background(), tr)
		n.Wait()
		assert.Empty(t, sender.Sent())
	})

	t.Run("requires dependencies", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { notify.NewNotifier(nil, lookupJane, nil, notify.Config{}) })
		assert.Panics(t, func() { notify.NewNotifier(notify.NewDevSender(nil), nil, nil, notify.Config{}) })
	})
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, notify.Message{To: "a@example.com", Subject: "s", BodyHTML: "<p>b</p>"}.Validate())

	err := notify.Message{To: "nope", Subject: "", BodyHTML: "x"}.Validate()
	assert.ErrorIs(t, err, notify.ErrInvalidMessage)
}

func TestNewPostmarkSender(t *testing.T) {
	t.Parallel()

	valid := notify.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "billing@example.com",
		SupportEmail:         "support@example.com",
	}
	s, err := notify.NewPostmarkSender(valid)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.True(t, valid.PostmarkEnabled())

	noToken := valid
	noToken.PostmarkServerToken = ""
	_, err = notify.NewPostmarkSender(noToken)
	assert.ErrorIs(t, err, notify.ErrInvalidConfig)

	badSender := valid
	badSender.SenderEmail = "billing"
	_, err = notify.NewPostmarkSender(badSender)
	assert.ErrorIs(t, err, notify.ErrInvalidConfig)
}
