/*
entitlement.go - The balance aggregate

PURPOSE:
  An Entitlement is one owner's leave allowance for one period (a calendar
  year). It owns the mutable remaining balance and the version counter that
  drives optimistic concurrency control.

BALANCE INVARIANT:
  0 <= RemainingDays <= TotalDays at all times. Debit enforces the lower
  bound up front and clamps as a last line of defense; credit clamps at the
  ceiling to survive double-credit bugs.

VERSIONING:
  Version increments on every successful persist of a mutation. Writers
  load the entitlement, mutate in memory, and persist guarded by the loaded
  version; a mismatch fails the whole operation with ErrConcurrencyConflict.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTotalDays is the allotment granted when no explicit total is given.
var DefaultTotalDays = decimal.NewFromInt(15)

// Entitlement is an owner's leave allowance for one period.
type Entitlement struct {
	ID            EntitlementID
	OwnerID       OwnerID
	PeriodKey     int // target year
	TotalDays     decimal.Decimal
	RemainingDays decimal.Decimal
	Version       int64
	CreatedAt     time.Time
}

// NewEntitlement produces a fresh entitlement with a full balance and
// version zero. Uniqueness per (owner, period) is enforced at persist time.
func NewEntitlement(id EntitlementID, owner OwnerID, periodKey int, totalDays decimal.Decimal, createdAt time.Time) *Entitlement {
	return &Entitlement{
		ID:            id,
		OwnerID:       owner,
		PeriodKey:     periodKey,
		TotalDays:     totalDays,
		RemainingDays: totalDays,
		Version:       0,
		CreatedAt:     createdAt,
	}
}

// Debit charges days against the remaining balance. Fails with
// InsufficientBalanceError when the charge exceeds what is available.
func (e *Entitlement) Debit(days decimal.Decimal) error {
	if days.GreaterThan(e.RemainingDays) {
		return &InsufficientBalanceError{
			EntitlementID: e.ID,
			Available:     e.RemainingDays,
			Requested:     days,
		}
	}
	e.RemainingDays = e.RemainingDays.Sub(days)
	// Unreachable given the check above; keeps the invariant even so.
	if e.RemainingDays.IsNegative() {
		e.RemainingDays = decimal.Zero
	}
	return nil
}

// Credit returns days to the remaining balance, clamped at the total.
// The clamp guards against double-credit bugs.
func (e *Entitlement) Credit(days decimal.Decimal) {
	e.RemainingDays = e.RemainingDays.Add(days)
	if e.RemainingDays.GreaterThan(e.TotalDays) {
		e.RemainingDays = e.TotalDays
	}
}

// ConsumedDays reports how much of the allotment is currently drawn.
func (e *Entitlement) ConsumedDays() decimal.Decimal {
	return e.TotalDays.Sub(e.RemainingDays)
}
