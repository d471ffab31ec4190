package notify

import (
	"context"
	"errors"

	"github.com/dmitrymomot/trialbill/pkg/validator"
)

// Sender delivers a rendered message.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) error
}

type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

func (m Message) Validate() error {
	if err := validator.Apply(
		validator.ValidEmail("to", m.To),
		validator.Required("subject", m.Subject),
		validator.Required("body_html", m.BodyHTML),
	); err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return nil
}
