// Package store provides an in-memory leave.Store implementation for
// testing and development. It honors the same versioned persist contract
// as the SQLite store, so lifecycle tests exercise real conflict paths.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	entitlements map[leave.EntitlementID]leave.Entitlement
	requests     map[leave.RequestID]leave.LeaveRequest
}

func NewMemory() *Memory {
	return &Memory{
		entitlements: make(map[leave.EntitlementID]leave.Entitlement),
		requests:     make(map[leave.RequestID]leave.LeaveRequest),
	}
}

// =============================================================================
// ENTITLEMENTS
// =============================================================================

func (m *Memory) InsertEntitlement(_ context.Context, ent *leave.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.entitlements {
		if existing.OwnerID == ent.OwnerID && existing.PeriodKey == ent.PeriodKey {
			return leave.ErrAlreadyExists
		}
	}
	m.entitlements[ent.ID] = *ent
	return nil
}

func (m *Memory) GetEntitlement(_ context.Context, id leave.EntitlementID) (*leave.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ent, ok := m.entitlements[id]
	if !ok {
		return nil, leave.ErrEntitlementNotFound
	}
	copied := ent
	return &copied, nil
}

func (m *Memory) CountEntitlements(_ context.Context, cond leave.EntitlementCondition) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.matchEntitlements(cond))), nil
}

func (m *Memory) ListEntitlements(_ context.Context, cond leave.EntitlementCondition, offset, limit int64) ([]leave.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchEntitlements(cond)
	sort.Slice(matched, func(i, j int) bool { return matched[i].PeriodKey > matched[j].PeriodKey })
	return page(matched, offset, limit), nil
}

func (m *Memory) matchEntitlements(cond leave.EntitlementCondition) []leave.Entitlement {
	var matched []leave.Entitlement
	for _, ent := range m.entitlements {
		if ent.OwnerID != cond.OwnerID {
			continue
		}
		if cond.PeriodKey != nil && ent.PeriodKey != *cond.PeriodKey {
			continue
		}
		matched = append(matched, ent)
	}
	return matched
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	copied := req
	return &copied, nil
}

func (m *Memory) ExistsOverlap(_ context.Context, cond leave.RequestCondition) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchRequests(cond)) > 0, nil
}

func (m *Memory) PersistCreate(_ context.Context, req *leave.LeaveRequest, ent *leave.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAndBumpVersion(ent); err != nil {
		return err
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *Memory) PersistCancel(_ context.Context, req *leave.LeaveRequest, ent *leave.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[req.ID]; !ok {
		return leave.ErrRequestNotFound
	}
	if err := m.checkAndBumpVersion(ent); err != nil {
		return err
	}
	m.requests[req.ID] = *req
	return nil
}

// checkAndBumpVersion is the versioned persist: the write only lands when
// the caller's loaded version still matches the stored one.
func (m *Memory) checkAndBumpVersion(ent *leave.Entitlement) error {
	stored, ok := m.entitlements[ent.ID]
	if !ok {
		return leave.ErrEntitlementNotFound
	}
	if stored.Version != ent.Version {
		return leave.ErrConcurrencyConflict
	}
	ent.Version++
	m.entitlements[ent.ID] = *ent
	return nil
}

func (m *Memory) CountRequests(_ context.Context, cond leave.RequestCondition) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.matchRequests(cond))), nil
}

func (m *Memory) ListRequests(_ context.Context, cond leave.RequestCondition, offset, limit int64) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchRequests(cond)
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartAt.After(matched[j].StartAt) })
	return page(matched, offset, limit), nil
}

func (m *Memory) matchRequests(cond leave.RequestCondition) []leave.LeaveRequest {
	var matched []leave.LeaveRequest
	for _, req := range m.requests {
		ent, ok := m.entitlements[req.EntitlementID]
		if !ok || ent.OwnerID != cond.OwnerID {
			continue
		}
		if cond.EntitlementID != nil && req.EntitlementID != *cond.EntitlementID {
			continue
		}
		if cond.Type != nil && req.Type != *cond.Type {
			continue
		}
		if cond.Status != nil && req.Status != *cond.Status {
			continue
		}
		if cond.StartAtLoe != nil && req.StartAt.After(*cond.StartAtLoe) {
			continue
		}
		if cond.StartAtGoe != nil && req.StartAt.Before(*cond.StartAtGoe) {
			continue
		}
		if cond.EndAtLoe != nil && req.EndAt.After(*cond.EndAtLoe) {
			continue
		}
		if cond.EndAtGoe != nil && req.EndAt.Before(*cond.EndAtGoe) {
			continue
		}
		matched = append(matched, req)
	}
	return matched
}

func page[T any](items []T, offset, limit int64) []T {
	if offset >= int64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
