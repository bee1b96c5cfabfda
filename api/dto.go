/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication. These types decouple the domain
  model from the external contract; day amounts cross the boundary as
  float64 and instants as RFC3339 strings.

VALIDATION:
  Shape validation (required fields, formats, the 50-character comment
  cap) lives in struct tags checked by go-playground/validator in the
  handlers. Semantic validation (ranges, day counts, past starts) belongs
  to the period calculator and is never duplicated here.
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// AUTH
// =============================================================================

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignupResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

func toLoginResponse(m *auth.Member, token string) LoginResponse {
	resp := LoginResponse{ID: m.ID, Email: m.Email, AccessToken: token}
	if m.LastLoginAt != nil {
		resp.LastLoginAt = m.LastLoginAt.Format(time.RFC3339)
	}
	return resp
}

// =============================================================================
// ENTITLEMENTS
// =============================================================================

type CreateEntitlementRequest struct {
	PeriodKey *int `json:"period_key,omitempty"`
}

type EntitlementDTO struct {
	ID            string  `json:"id"`
	OwnerID       string  `json:"owner_id"`
	PeriodKey     int     `json:"period_key"`
	TotalDays     float64 `json:"total_days"`
	RemainingDays float64 `json:"remaining_days"`
	Version       int64   `json:"version"`
	CreatedAt     string  `json:"created_at"`
}

func toEntitlementDTO(e *leave.Entitlement) EntitlementDTO {
	return EntitlementDTO{
		ID:            string(e.ID),
		OwnerID:       string(e.OwnerID),
		PeriodKey:     e.PeriodKey,
		TotalDays:     e.TotalDays.InexactFloat64(),
		RemainingDays: e.RemainingDays.InexactFloat64(),
		Version:       e.Version,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type CreateLeaveRequest struct {
	EntitlementID string     `json:"entitlement_id" validate:"required"`
	Type          string     `json:"type" validate:"required"`
	StartAt       time.Time  `json:"start_at" validate:"required"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	Days          *float64   `json:"days,omitempty"`
	Comment       string     `json:"comment,omitempty" validate:"max=50"`
}

type LeaveRequestDTO struct {
	ID            string  `json:"id"`
	EntitlementID string  `json:"entitlement_id"`
	Type          string  `json:"type"`
	StartAt       string  `json:"start_at"`
	EndAt         string  `json:"end_at"`
	Days          float64 `json:"days"`
	Status        string  `json:"status"`
	Comment       string  `json:"comment,omitempty"`
	CanceledAt    string  `json:"canceled_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func toLeaveRequestDTO(r *leave.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:            string(r.ID),
		EntitlementID: string(r.EntitlementID),
		Type:          string(r.Type),
		StartAt:       r.StartAt.Format(time.RFC3339),
		EndAt:         r.EndAt.Format(time.RFC3339),
		Days:          r.Days.InexactFloat64(),
		Status:        string(r.Status),
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.CanceledAt != nil {
		dto.CanceledAt = r.CanceledAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// COLLECTIONS
// =============================================================================

// ListResponse wraps a page of items with the unpaged total.
type ListResponse struct {
	Total int64 `json:"total"`
	Items any   `json:"items"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
