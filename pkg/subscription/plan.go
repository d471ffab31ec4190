package subscription

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Plan is a billable plan offered to users.
type Plan struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Features    []string `json:"features,omitempty" yaml:"features"`
	Price       Money    `json:"price" yaml:"price"`
	TrialDays   int      `json:"trial_days" yaml:"trial_days"`
	// PriceID is the gateway's price identifier. Falls back to ID when empty.
	PriceID string `json:"-" yaml:"price_id"`
}

// GatewayPriceID returns the identifier the billing gateway knows the plan by.
func (p Plan) GatewayPriceID() string {
	if p.PriceID != "" {
		return p.PriceID
	}
	return p.ID
}

func (p Plan) clone() Plan {
	p.Features = slices.Clone(p.Features)
	return p
}

// DefaultPlans returns the built-in plan table.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:        "starter",
			Name:      "Starter Plan",
			Features:  []string{"Basic features", "Email support", "5 projects"},
			Price:     Money{Amount: 10000, Currency: "INR"},
			TrialDays: DefaultTrialDays,
		},
		{
			ID:        "pro",
			Name:      "Pro Plan",
			Features:  []string{"All features", "Priority support", "Unlimited projects", "Advanced analytics"},
			Price:     Money{Amount: 50000, Currency: "INR"},
			TrialDays: DefaultTrialDays,
		},
	}
}

// PlansSource loads plan definitions into a Catalog.
type PlansSource interface {
	Load(ctx context.Context) ([]Plan, error)
}

// Catalog is an immutable, validated plan table.
type Catalog struct {
	plans map[string]Plan
	order []string
}

// NewCatalog validates plans and builds a catalog preserving their order.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if err := ValidatePlans(plans); err != nil {
		return nil, err
	}

	c := &Catalog{
		plans: make(map[string]Plan, len(plans)),
		order: make([]string, 0, len(plans)),
	}
	for _, p := range plans {
		c.plans[p.ID] = p.clone()
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// LoadCatalog loads plans from src and validates them.
func LoadCatalog(ctx context.Context, src PlansSource) (*Catalog, error) {
	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrInvalidPlanCatalog, err)
	}
	return NewCatalog(plans...)
}

// Get returns the plan with the given ID.
func (c *Catalog) Get(id string) (Plan, bool) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, false
	}
	return p.clone(), true
}

// Plans returns all plans in catalog order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id].clone())
	}
	return out
}

// NameOf returns the display name of a plan, or the ID itself for plans
// no longer in the catalog.
func (c *Catalog) NameOf(id string) string {
	if p, ok := c.plans[id]; ok {
		return p.Name
	}
	return id
}

// ByPriceID finds a plan by its gateway price ID.
func (c *Catalog) ByPriceID(priceID string) (Plan, bool) {
	for _, id := range slices.Sorted(maps.Keys(c.plans)) {
		if p := c.plans[id]; p.GatewayPriceID() == priceID {
			return p.clone(), true
		}
	}
	return Plan{}, false
}

// ValidatePlans checks a plan table: at least one plan, unique non-empty IDs,
// non-empty names, non-negative prices and trial days.
func ValidatePlans(plans []Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlanCatalog, errors.New("no plans defined"))
	}

	seen := make(map[string]struct{}, len(plans))
	var errs []error
	for i, p := range plans {
		id := strings.TrimSpace(p.ID)
		label := cmp.Or(id, fmt.Sprintf("#%d", i))
		if id == "" {
			errs = append(errs, fmt.Errorf("plan %s: empty id", label))
		} else if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("plan %s: duplicate id", label))
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("plan %s: empty name", label))
		}
		if p.Price.Amount < 0 {
			errs = append(errs, fmt.Errorf("plan %s: negative price", label))
		}
		if p.Price.Amount > 0 && p.Price.Currency == "" {
			errs = append(errs, fmt.Errorf("plan %s: currency is required", label))
		}
		if p.TrialDays < 0 {
			errs = append(errs, fmt.Errorf("plan %s: negative trial days", label))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidPlanCatalog}, errs...)...)
	}
	return nil
}
