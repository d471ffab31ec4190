package subscription

import (
	"context"
	"time"
)

// Store persists subscription records keyed by user ID.
type Store interface {
	// Read returns the user's record. A user without a subscription has a
	// record in StatusNone; an unknown user yields ErrRecordNotFound.
	Read(ctx context.Context, userID string) (*Record, error)

	// Write applies a partial update: only the fields set on the patch change.
	Write(ctx context.Context, userID string, patch Patch) error

	// FindByExternalID resolves the owner of an external subscription ID.
	FindByExternalID(ctx context.Context, externalID string) (userID string, rec *Record, err error)

	// ListDueTrials returns users whose trial ended at or before before.
	// Trials still waiting on checkout are not due.
	ListDueTrials(ctx context.Context, before time.Time, limit int) ([]DueTrial, error)
}

// DueTrial is a trial record ready to be activated.
type DueTrial struct {
	UserID string
	Record Record
}
