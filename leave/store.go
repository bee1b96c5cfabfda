/*
store.go - Persistence interfaces for entitlements and requests

PURPOSE:
  Defines the contract between the lifecycle and the database. Two
  implementations exist: store/sqlite (production) and leave/store
  (in-memory, for tests).

VERSIONED PERSIST CONTRACT:
  PersistCreate and PersistCancel write the request and the mutated
  entitlement together, atomically, guarded by the entitlement version the
  caller loaded. The implementation must:
    - compare-and-increment the stored version in the same atomic write
    - fail the whole operation with ErrConcurrencyConflict on mismatch
    - reflect the incremented version back into the passed entitlement
      on success
  No other write path may touch an entitlement's balance.

OVERLAP QUERY:
  ExistsOverlap answers the overlap detector: does any request matching
  the condition exist? Implementations should back it with an index over
  (entitlement, status, start, end).
*/
package leave

import "context"

// EntitlementStore persists entitlements.
type EntitlementStore interface {
	// InsertEntitlement persists a new entitlement. Fails with
	// ErrAlreadyExists when one exists for the same (owner, period) pair.
	InsertEntitlement(ctx context.Context, ent *Entitlement) error

	// GetEntitlement loads by id. Fails with ErrEntitlementNotFound.
	GetEntitlement(ctx context.Context, id EntitlementID) (*Entitlement, error)

	// CountEntitlements returns the total matching the condition.
	CountEntitlements(ctx context.Context, cond EntitlementCondition) (int64, error)

	// ListEntitlements returns a page matching the condition, newest period
	// first.
	ListEntitlements(ctx context.Context, cond EntitlementCondition, offset, limit int64) ([]Entitlement, error)
}

// RequestStore persists leave requests and the coupled entitlement
// mutations.
type RequestStore interface {
	// GetRequest loads by id. Fails with ErrRequestNotFound.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// ExistsOverlap reports whether any request matches the condition.
	// The creation flow calls it with ActiveOverlapCondition.
	ExistsOverlap(ctx context.Context, cond RequestCondition) (bool, error)

	// PersistCreate writes the new request and the debited entitlement
	// atomically under the versioned persist contract.
	PersistCreate(ctx context.Context, req *LeaveRequest, ent *Entitlement) error

	// PersistCancel writes the canceled request and the credited
	// entitlement atomically under the versioned persist contract.
	PersistCancel(ctx context.Context, req *LeaveRequest, ent *Entitlement) error

	// CountRequests returns the total matching the condition.
	CountRequests(ctx context.Context, cond RequestCondition) (int64, error)

	// ListRequests returns a page matching the condition, latest start
	// first.
	ListRequests(ctx context.Context, cond RequestCondition, offset, limit int64) ([]LeaveRequest, error)
}

// Store is the full persistence surface the lifecycle needs.
type Store interface {
	EntitlementStore
	RequestStore
}

// OwnerDirectory resolves whether an owner identity exists. Implemented by
// the membership store; the lifecycle only consumes it when creating
// entitlements.
type OwnerDirectory interface {
	OwnerExists(ctx context.Context, owner OwnerID) (bool, error)
}
