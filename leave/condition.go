/*
condition.go - Filter predicates for list/count queries

PURPOSE:
  Conditions are plain data: optional fields are pointers, nil means
  "unfiltered". Stores translate them into their own query form. Every
  condition is scoped to an owner so callers can only ever see their own
  records.
*/
package leave

import "time"

// EntitlementCondition filters entitlement list/count queries.
type EntitlementCondition struct {
	OwnerID   OwnerID
	PeriodKey *int
}

// RequestCondition filters leave request list/count queries. The time
// bounds express the same loe/goe comparisons the overlap detector uses:
// StartAtLoe keeps requests starting at or before the bound, EndAtGoe
// keeps requests ending at or after it, and so on.
type RequestCondition struct {
	OwnerID       OwnerID
	EntitlementID *EntitlementID
	Type          *LeaveType
	Status        *RequestStatus
	StartAtLoe    *time.Time
	StartAtGoe    *time.Time
	EndAtLoe      *time.Time
	EndAtGoe      *time.Time
}

// ActiveOverlapCondition builds the predicate the overlap detector runs:
// active requests on the entitlement whose closed interval intersects
// [start, end].
func ActiveOverlapCondition(owner OwnerID, id EntitlementID, start, end time.Time) RequestCondition {
	status := StatusActive
	return RequestCondition{
		OwnerID:       owner,
		EntitlementID: &id,
		Status:        &status,
		StartAtLoe:    &end,
		EndAtGoe:      &start,
	}
}
