/*
request.go - The leave request record and its state machine

PURPOSE:
  A LeaveRequest is one draw against an entitlement: a normalized interval,
  a day charge, and a two-state lifecycle.

STATE MACHINE:
  active ──cancel──▶ canceled (terminal)

  Creation either fully succeeds (debited, persisted, Active) or fails
  atomically; there is no pending state. Cancellation is irreversible and
  refused once the leave has started.

OWNERSHIP:
  The request references its entitlement by identifier only. Listing the
  requests of an entitlement is a query, not an embedded collection, so the
  object graph stays acyclic and the entitlement exclusively owns its
  balance.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaveRequest is one draw against an entitlement.
type LeaveRequest struct {
	ID            RequestID
	EntitlementID EntitlementID
	Type          LeaveType
	StartAt       time.Time
	EndAt         time.Time
	Days          decimal.Decimal
	Status        RequestStatus
	Comment       string
	CanceledAt    *time.Time
	CreatedAt     time.Time
}

// Overlaps reports whether the request's closed interval intersects
// [start, end]. Touching endpoints count as overlap: a request ending
// exactly when another starts still collides.
func (r *LeaveRequest) Overlaps(start, end time.Time) bool {
	return !r.StartAt.After(end) && !r.EndAt.Before(start)
}

// MarkCanceled performs the single state transition. Callers must have
// already verified the cancellation window; this only flips state.
func (r *LeaveRequest) MarkCanceled(at time.Time) {
	r.Status = StatusCanceled
	r.CanceledAt = &at
}
