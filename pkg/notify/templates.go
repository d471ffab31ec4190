package notify

import (
	"context"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

// EmailData is the view model shared by all subscription emails.
type EmailData struct {
	AppName     string
	AppURL      string
	Name        string
	PlanName    string
	Price       string
	TrialEnds   string
	NextBilling string
	PeriodEnds  string
}

// kind -> subject and body.
var emailKinds = map[subscription.Status]struct {
	tag     string
	subject string
	body    func(EmailData) templ.Component
}{
	subscription.StatusTrial:     {"trial_started", "Your free trial has started", trialStartedEmail},
	subscription.StatusActive:    {"subscription_activated", "Your subscription is active", activatedEmail},
	subscription.StatusCancelled: {"subscription_cancelled", "Your subscription was cancelled", cancelledEmail},
}

// Render renders a component to a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatMoney(m subscription.Money) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s %.2f", m.Currency, float64(m.Amount)/100)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}
