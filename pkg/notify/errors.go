package notify

import "errors"

var (
	ErrFailedToSendEmail = errors.New("notify: failed to send email")
	ErrInvalidConfig     = errors.New("notify: invalid config")
	ErrInvalidMessage    = errors.New("notify: invalid message")
)
