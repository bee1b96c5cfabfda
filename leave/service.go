/*
service.go - Leave request lifecycle orchestration

PURPOSE:
  The Service wires the pure pieces together: period calculation, overlap
  detection, balance mutation, and the versioned persist. It is the only
  entry point that mutates state.

CREATE FLOW:
  load entitlement -> authorize -> calculate period -> overlap check ->
  debit -> versioned persist. Any step failing aborts the whole operation;
  nothing is retried here. A ConcurrencyConflict means the caller should
  resubmit, which re-runs every check against the now-current state.

CANCEL FLOW:
  load request -> authorize via owning entitlement -> refuse once started
  or already canceled -> mark canceled -> credit -> versioned persist.
  The credit shares the entitlement version guard, so a concurrent create
  debiting the same entitlement fails the cancel persist too.

CONCURRENCY MODEL:
  Multiple calls against the same entitlement may run concurrently; no
  in-process mutex serializes them and no lock is held across I/O. The
  version check at persist time is the single correctness mechanism.
*/
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service orchestrates entitlement and leave request operations.
type Service struct {
	store  Store
	owners OwnerDirectory
	hours  WorkingHours
	log    *logrus.Logger

	now   func() time.Time
	newID func() string
}

// Option customizes a Service. Used by tests to pin the clock and ids.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates the lifecycle service.
func NewService(store Store, owners OwnerDirectory, hours WorkingHours, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		owners: owners,
		hours:  hours,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// ENTITLEMENT OPERATIONS
// =============================================================================

// CreateEntitlement grants a fresh allotment for the owner and period.
// A nil periodKey targets the current year. At most one entitlement exists
// per (owner, period); duplicates fail with ErrAlreadyExists.
func (s *Service) CreateEntitlement(ctx context.Context, owner OwnerID, periodKey *int) (*Entitlement, error) {
	exists, err := s.owners.OwnerExists(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrOwnerNotFound
	}

	year := s.now().Year()
	if periodKey != nil {
		year = *periodKey
	}

	ent := NewEntitlement(EntitlementID(s.newID()), owner, year, DefaultTotalDays, s.now())
	if err := s.store.InsertEntitlement(ctx, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// GetEntitlement loads one entitlement, enforcing ownership.
func (s *Service) GetEntitlement(ctx context.Context, owner OwnerID, id EntitlementID) (*Entitlement, error) {
	ent, err := s.store.GetEntitlement(ctx, id)
	if err != nil {
		return nil, err
	}
	if ent.OwnerID != owner {
		return nil, ErrAccessDenied
	}
	return ent, nil
}

// ListEntitlements returns the owner's entitlements plus the unpaged total.
func (s *Service) ListEntitlements(ctx context.Context, owner OwnerID, periodKey *int, offset, limit int64) (int64, []Entitlement, error) {
	cond := EntitlementCondition{OwnerID: owner, PeriodKey: periodKey}
	total, err := s.store.CountEntitlements(ctx, cond)
	if err != nil {
		return 0, nil, err
	}
	items, err := s.store.ListEntitlements(ctx, cond, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// CreateRequestInput carries the raw caller inputs for request creation.
type CreateRequestInput struct {
	EntitlementID EntitlementID
	Type          LeaveType
	StartAt       time.Time
	EndAt         *time.Time
	Days          *float64
	Comment       string
}

// CreateRequest draws leave against an entitlement.
func (s *Service) CreateRequest(ctx context.Context, owner OwnerID, in CreateRequestInput) (*LeaveRequest, error) {
	ent, err := s.store.GetEntitlement(ctx, in.EntitlementID)
	if err != nil {
		return nil, err
	}
	if ent.OwnerID != owner {
		return nil, ErrAccessDenied
	}

	period, err := CalculatePeriod(in.Type, in.StartAt, in.EndAt, in.Days, s.hours, s.now())
	if err != nil {
		return nil, err
	}

	overlap, err := s.store.ExistsOverlap(ctx,
		ActiveOverlapCondition(owner, ent.ID, period.StartAt, period.EndAt))
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrDuplicatePeriod
	}

	if err := ent.Debit(period.Days); err != nil {
		return nil, err
	}

	req := &LeaveRequest{
		ID:            RequestID(s.newID()),
		EntitlementID: ent.ID,
		Type:          in.Type,
		StartAt:       period.StartAt,
		EndAt:         period.EndAt,
		Days:          period.Days,
		Status:        StatusActive,
		Comment:       in.Comment,
		CreatedAt:     s.now(),
	}

	if err := s.store.PersistCreate(ctx, req, ent); err != nil {
		if IsRetryable(err) {
			s.log.WithFields(logrus.Fields{
				"entitlement_id": ent.ID,
				"owner_id":       owner,
			}).Error("concurrent write detected while creating leave request")
		}
		return nil, err
	}
	return req, nil
}

// CancelRequest irreversibly cancels an active request and credits the
// entitlement back.
func (s *Service) CancelRequest(ctx context.Context, owner OwnerID, id RequestID) (*LeaveRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	ent, err := s.store.GetEntitlement(ctx, req.EntitlementID)
	if err != nil {
		return nil, err
	}
	if ent.OwnerID != owner {
		return nil, ErrAccessDenied
	}

	now := s.now()
	if !now.Before(req.StartAt) {
		return nil, ErrAlreadyStarted
	}
	if req.Status == StatusCanceled {
		return nil, ErrAlreadyCanceled
	}

	req.MarkCanceled(now)
	ent.Credit(req.Days)

	if err := s.store.PersistCancel(ctx, req, ent); err != nil {
		if IsRetryable(err) {
			s.log.WithFields(logrus.Fields{
				"request_id":     req.ID,
				"entitlement_id": ent.ID,
			}).Error("concurrent write detected while canceling leave request")
		}
		return nil, err
	}
	return req, nil
}

// ListRequests returns the owner's leave requests plus the unpaged total.
// The condition's owner scope is forced to the caller.
func (s *Service) ListRequests(ctx context.Context, owner OwnerID, cond RequestCondition, offset, limit int64) (int64, []LeaveRequest, error) {
	cond.OwnerID = owner
	total, err := s.store.CountRequests(ctx, cond)
	if err != nil {
		return 0, nil, err
	}
	items, err := s.store.ListRequests(ctx, cond, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
