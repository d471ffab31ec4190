package subscription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

func TestBreakerGateway(t *testing.T) {
	t.Parallel()

	cfg := subscription.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}

	t.Run("opens after consecutive failures", func(t *testing.T) {
		t.Parallel()

		next := &mockGateway{}
		next.On("CancelSubscription", mock.Anything, "sub_1", true).Return(errors.New("502 bad gateway")).Twice()

		reg := prometheus.NewRegistry()
		b := subscription.NewBreakerGateway(next, cfg, nil, subscription.NewMetrics(reg))

		for range 2 {
			err := b.CancelSubscription(context.Background(), "sub_1", true)
			require.Error(t, err)
			assert.NotErrorIs(t, err, subscription.ErrGatewayUnavailable)
		}
		assert.Equal(t, gobreaker.StateOpen, b.State())

		err := b.CancelSubscription(context.Background(), "sub_1", true)
		assert.ErrorIs(t, err, subscription.ErrGatewayUnavailable)
		next.AssertNumberOfCalls(t, "CancelSubscription", 2)

		n, err := testutil.GatherAndCount(reg, "subscription_gateway_breaker_state")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("rejected plans do not trip", func(t *testing.T) {
		t.Parallel()

		next := &mockGateway{}
		next.On("CreateSubscription", mock.Anything, mock.Anything).Return(nil, subscription.ErrGatewayInvalidPlan)
		b := subscription.NewBreakerGateway(next, cfg, nil, nil)

		for range 5 {
			_, err := b.CreateSubscription(context.Background(), subscription.CreateRequest{PlanID: "x"})
			assert.ErrorIs(t, err, subscription.ErrGatewayInvalidPlan)
		}
		assert.Equal(t, gobreaker.StateClosed, b.State())
	})

	t.Run("unknown subscriptions do not trip", func(t *testing.T) {
		t.Parallel()

		next := &mockGateway{}
		next.On("CancelSubscription", mock.Anything, "sub_gone", true).Return(subscription.ErrGatewaySubscriptionNotFound)
		b := subscription.NewBreakerGateway(next, cfg, nil, nil)

		for range 5 {
			err := b.CancelSubscription(context.Background(), "sub_gone", true)
			assert.ErrorIs(t, err, subscription.ErrGatewaySubscriptionNotFound)
		}
		assert.Equal(t, gobreaker.StateClosed, b.State())
	})

	t.Run("passes results through", func(t *testing.T) {
		t.Parallel()

		next := &mockGateway{}
		next.On("CreateSubscription", mock.Anything, mock.Anything).Return(&subscription.Created{ID: "sub_5"}, nil)
		next.On("ParseWebhook", mock.Anything, []byte("{}"), "sig").Return(&subscription.WebhookEvent{Type: subscription.EventPaymentSucceeded}, nil)
		b := subscription.NewBreakerGateway(next, cfg, nil, nil)

		created, err := b.CreateSubscription(context.Background(), subscription.CreateRequest{PlanID: "starter"})
		require.NoError(t, err)
		assert.Equal(t, "sub_5", created.ID)

		event, err := b.ParseWebhook(context.Background(), []byte("{}"), "sig")
		require.NoError(t, err)
		assert.Equal(t, subscription.EventPaymentSucceeded, event.Type)
	})

	t.Run("panics without gateway", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { subscription.NewBreakerGateway(nil, cfg, nil, nil) })
	})
}
