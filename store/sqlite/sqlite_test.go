/*
sqlite_test.go - SQLite store tests

PURPOSE:
  Verifies the storage contracts against a real database: unique
  constraints surfacing as domain errors, the compare-and-increment
  versioned persist, the overlap EXISTS query, and owner-scoped listing.
*/
package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

var testCreatedAt = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedMember(t *testing.T, s *sqlite.Store, id, email string) {
	t.Helper()
	err := s.InsertMember(context.Background(), &auth.Member{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    testCreatedAt,
	})
	require.NoError(t, err)
}

func seedEntitlement(t *testing.T, s *sqlite.Store, id leave.EntitlementID, owner leave.OwnerID, period int) *leave.Entitlement {
	t.Helper()
	ent := leave.NewEntitlement(id, owner, period, leave.DefaultTotalDays, testCreatedAt)
	require.NoError(t, s.InsertEntitlement(context.Background(), ent))
	return ent
}

func dayOffRequest(id leave.RequestID, entID leave.EntitlementID, startDay, endDay int, days float64) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:            id,
		EntitlementID: entID,
		Type:          leave.TypeDayOff,
		StartAt:       time.Date(2024, time.June, startDay, 0, 0, 0, 0, time.UTC),
		EndAt:         time.Date(2024, time.June, endDay, 23, 59, 59, 0, time.UTC),
		Days:          leave.Days(days),
		Status:        leave.StatusActive,
		CreatedAt:     testCreatedAt,
	}
}

// =============================================================================
// MEMBERS
// =============================================================================

func TestMembers_Lifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")

	m, err := s.GetMemberByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "m-1", m.ID)
	assert.Nil(t, m.LastLoginAt)

	loginAt := testCreatedAt.Add(time.Hour)
	require.NoError(t, s.UpdateLastLogin(ctx, "m-1", loginAt))
	m, err = s.GetMember(ctx, "m-1")
	require.NoError(t, err)
	require.NotNil(t, m.LastLoginAt)
	assert.True(t, m.LastLoginAt.Equal(loginAt))

	_, err = s.GetMember(ctx, "ghost")
	assert.ErrorIs(t, err, auth.ErrMemberNotFound)
}

func TestMembers_DuplicateEmail(t *testing.T) {
	s := newStore(t)
	seedMember(t, s, "m-1", "alice@example.com")

	err := s.InsertMember(context.Background(), &auth.Member{
		ID:           "m-2",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    testCreatedAt,
	})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestOwnerExists(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")

	exists, err := s.OwnerExists(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.OwnerExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// ENTITLEMENTS
// =============================================================================

func TestEntitlements_RoundTrip(t *testing.T) {
	s := newStore(t)
	seedMember(t, s, "m-1", "alice@example.com")
	seedEntitlement(t, s, "ent-1", "m-1", 2024)

	got, err := s.GetEntitlement(context.Background(), "ent-1")
	require.NoError(t, err)
	assert.Equal(t, leave.OwnerID("m-1"), got.OwnerID)
	assert.Equal(t, 2024, got.PeriodKey)
	assert.True(t, got.TotalDays.Equal(leave.DefaultTotalDays))
	assert.True(t, got.RemainingDays.Equal(leave.DefaultTotalDays))
	assert.Equal(t, int64(0), got.Version)
	assert.True(t, got.CreatedAt.Equal(testCreatedAt))

	_, err = s.GetEntitlement(context.Background(), "missing")
	assert.ErrorIs(t, err, leave.ErrEntitlementNotFound)
}

func TestEntitlements_UniquePerOwnerPeriod(t *testing.T) {
	s := newStore(t)
	seedMember(t, s, "m-1", "alice@example.com")
	seedEntitlement(t, s, "ent-1", "m-1", 2024)

	dup := leave.NewEntitlement("ent-2", "m-1", 2024, leave.DefaultTotalDays, testCreatedAt)
	err := s.InsertEntitlement(context.Background(), dup)
	assert.ErrorIs(t, err, leave.ErrAlreadyExists)

	// A different period for the same owner is allowed.
	seedEntitlement(t, s, "ent-3", "m-1", 2025)
}

func TestEntitlements_ListNewestPeriodFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")
	seedEntitlement(t, s, "ent-1", "m-1", 2023)
	seedEntitlement(t, s, "ent-2", "m-1", 2025)
	seedEntitlement(t, s, "ent-3", "m-1", 2024)

	cond := leave.EntitlementCondition{OwnerID: "m-1"}
	total, err := s.CountEntitlements(ctx, cond)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	items, err := s.ListEntitlements(ctx, cond, 0, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2025, items[0].PeriodKey)
	assert.Equal(t, 2024, items[1].PeriodKey)

	year := 2024
	cond.PeriodKey = &year
	total, err = s.CountEntitlements(ctx, cond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// =============================================================================
// VERSIONED PERSIST
// =============================================================================

func TestPersistCreate_VersionGuard(t *testing.T) {
	// GIVEN: two in-memory copies loaded at version 0
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")
	seedEntitlement(t, s, "ent-1", "m-1", 2024)

	first, err := s.GetEntitlement(ctx, "ent-1")
	require.NoError(t, err)
	stale, err := s.GetEntitlement(ctx, "ent-1")
	require.NoError(t, err)

	// WHEN: the first copy persists a debit
	require.NoError(t, first.Debit(leave.Days(5)))
	err = s.PersistCreate(ctx, dayOffRequest("req-1", "ent-1", 10, 14, 5), first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version, "in-memory version reflects the stored row")

	// THEN: the stale copy's persist is rejected and leaves no request behind
	require.NoError(t, stale.Debit(leave.Days(1)))
	err = s.PersistCreate(ctx, dayOffRequest("req-2", "ent-1", 20, 20, 1), stale)
	assert.ErrorIs(t, err, leave.ErrConcurrencyConflict)

	_, err = s.GetRequest(ctx, "req-2")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)

	current, err := s.GetEntitlement(ctx, "ent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.Version)
	assert.True(t, current.RemainingDays.Equal(leave.Days(10)))
}

func TestPersistCancel_VersionGuard(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")
	ent := seedEntitlement(t, s, "ent-1", "m-1", 2024)

	req := dayOffRequest("req-1", "ent-1", 10, 14, 5)
	require.NoError(t, ent.Debit(req.Days))
	require.NoError(t, s.PersistCreate(ctx, req, ent))

	// A copy loaded before a competing write holds a stale version.
	stale, err := s.GetEntitlement(ctx, "ent-1")
	require.NoError(t, err)

	rival, err := s.GetEntitlement(ctx, "ent-1")
	require.NoError(t, err)
	require.NoError(t, rival.Debit(leave.Days(1)))
	require.NoError(t, s.PersistCreate(ctx, dayOffRequest("req-2", "ent-1", 20, 20, 1), rival))

	req.MarkCanceled(testCreatedAt.Add(time.Hour))
	stale.Credit(req.Days)
	err = s.PersistCancel(ctx, req, stale)
	assert.ErrorIs(t, err, leave.ErrConcurrencyConflict)

	// The request is untouched by the failed cancel.
	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusActive, got.Status)
}

// =============================================================================
// OVERLAP QUERY
// =============================================================================

func TestExistsOverlap(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")
	ent := seedEntitlement(t, s, "ent-1", "m-1", 2024)

	req := dayOffRequest("req-1", "ent-1", 10, 14, 5)
	require.NoError(t, ent.Debit(req.Days))
	require.NoError(t, s.PersistCreate(ctx, req, ent))

	probe := func(start, end time.Time) bool {
		t.Helper()
		exists, err := s.ExistsOverlap(ctx, leave.ActiveOverlapCondition("m-1", "ent-1", start, end))
		require.NoError(t, err)
		return exists
	}

	// Touching the last day of the stored span counts as overlap.
	assert.True(t, probe(
		time.Date(2024, time.June, 14, 10, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC)))

	// A disjoint later interval does not.
	assert.False(t, probe(
		time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 20, 23, 59, 59, 0, time.UTC)))

	// An interval fully containing the stored span does.
	assert.True(t, probe(
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC)))

	// Canceled requests leave the comparison set.
	req.MarkCanceled(testCreatedAt.Add(time.Hour))
	ent.Credit(req.Days)
	require.NoError(t, s.PersistCancel(ctx, req, ent))
	assert.False(t, probe(
		time.Date(2024, time.June, 14, 10, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC)))
}

// =============================================================================
// LISTING
// =============================================================================

func TestRequests_OwnerScopingAndFilters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")
	seedMember(t, s, "m-2", "bob@example.com")
	entA := seedEntitlement(t, s, "ent-a", "m-1", 2024)
	entB := seedEntitlement(t, s, "ent-b", "m-2", 2024)

	reqs := []*leave.LeaveRequest{
		dayOffRequest("req-1", "ent-a", 10, 12, 3),
		dayOffRequest("req-2", "ent-a", 17, 18, 2),
	}
	for _, req := range reqs {
		require.NoError(t, entA.Debit(req.Days))
		require.NoError(t, s.PersistCreate(ctx, req, entA))
	}
	rival := dayOffRequest("req-3", "ent-b", 10, 12, 3)
	require.NoError(t, entB.Debit(rival.Days))
	require.NoError(t, s.PersistCreate(ctx, rival, entB))

	// Owner scoping rides the entitlement join; m-2 never sees m-1's rows.
	total, err := s.CountRequests(ctx, leave.RequestCondition{OwnerID: "m-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// Latest start first, paged.
	items, err := s.ListRequests(ctx, leave.RequestCondition{OwnerID: "m-1"}, 0, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, leave.RequestID("req-2"), items[0].ID)

	items, err = s.ListRequests(ctx, leave.RequestCondition{OwnerID: "m-1"}, 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, leave.RequestID("req-1"), items[0].ID)

	// Range bound: requests starting on or after June 15.
	goe := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	total, err = s.CountRequests(ctx, leave.RequestCondition{OwnerID: "m-1", StartAtGoe: &goe})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	typ := leave.TypeDayOff
	total, err = s.CountRequests(ctx, leave.RequestCondition{OwnerID: "m-1", Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRequests_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedMember(t, s, "m-1", "alice@example.com")
	ent := seedEntitlement(t, s, "ent-1", "m-1", 2024)

	req := dayOffRequest("req-1", "ent-1", 10, 14, 5)
	req.Comment = "summer break"
	require.NoError(t, ent.Debit(req.Days))
	require.NoError(t, s.PersistCreate(ctx, req, ent))

	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.TypeDayOff, got.Type)
	assert.Equal(t, leave.StatusActive, got.Status)
	assert.Equal(t, "summer break", got.Comment)
	assert.True(t, got.StartAt.Equal(req.StartAt))
	assert.True(t, got.EndAt.Equal(req.EndAt))
	assert.True(t, got.Days.Equal(leave.Days(5)))
	assert.Nil(t, got.CanceledAt)
}
