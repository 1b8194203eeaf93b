package ratelimit

import (
	"context"
	"time"
)

// Result is the admission decision for one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces a maximum request count per identifier within a sliding
// window. One limiter instance covers one policy; the backend is chosen once
// at startup, never per call.
type Limiter interface {
	Check(ctx context.Context, identifier string) (Result, error)
}

// Policy names a limit namespace and its budget.
type Policy struct {
	Namespace string
	Limit     int
	Window    time.Duration
}

// PolicySet carries the per-endpoint policies.
type PolicySet struct {
	Login         Policy
	Register      Policy
	PasswordReset Policy
	ItemCreate    Policy
	ReceiptCreate Policy
}

// PoliciesFor returns the per-environment policy table. Authentication
// endpoints get small production budgets; development budgets are large
// enough to never block iterative testing.
func PoliciesFor(production bool) PolicySet {
	if production {
		return PolicySet{
			Login:         Policy{Namespace: "login", Limit: 5, Window: 15 * time.Minute},
			Register:      Policy{Namespace: "register", Limit: 3, Window: 15 * time.Minute},
			PasswordReset: Policy{Namespace: "password_reset", Limit: 3, Window: time.Hour},
			ItemCreate:    Policy{Namespace: "item_create", Limit: 60, Window: time.Minute},
			ReceiptCreate: Policy{Namespace: "receipt_create", Limit: 30, Window: time.Minute},
		}
	}
	return PolicySet{
		Login:         Policy{Namespace: "login", Limit: 1000, Window: 15 * time.Minute},
		Register:      Policy{Namespace: "register", Limit: 1000, Window: 15 * time.Minute},
		PasswordReset: Policy{Namespace: "password_reset", Limit: 1000, Window: time.Hour},
		ItemCreate:    Policy{Namespace: "item_create", Limit: 1000, Window: time.Minute},
		ReceiptCreate: Policy{Namespace: "receipt_create", Limit: 1000, Window: time.Minute},
	}
}
