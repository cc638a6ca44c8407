package adapter

import (
	"context"

	"reetrack-billing/internal/domain/model"
)

// Subscriber is the directory's view of a billable party.
type Subscriber struct {
	ID           string
	Kind         model.SubscriberType
	OrgID        string // owning organization; equals ID for organizations
	BillingEmail string
}

// Directory resolves subscriber ids against the organization/member
// directory. The directory itself is an external collaborator; this service
// only reads it.
type Directory interface {
	Resolve(ctx context.Context, subscriberID string) (Subscriber, error)
	CountMembers(ctx context.Context, orgID string) (int, error)
	OrganizationExists(ctx context.Context, orgID string) (bool, error)
}
