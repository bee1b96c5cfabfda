/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST. Handlers parse and shape-validate
  input, resolve the caller from the request context, delegate to the
  services, and map domain errors to HTTP statuses.

ENDPOINTS:
  Auth:
    POST /api/auth/signup            Register a member
    POST /api/auth/login             Authenticate, returns bearer token

  Entitlements (bearer token required):
    POST /api/entitlements           Create the caller's entitlement
    GET  /api/entitlements           List with total (period_key filter)
    GET  /api/entitlements/{id}      Fetch one

  Requests (bearer token required):
    POST /api/requests               Draw leave against an entitlement
    POST /api/requests/{id}/cancel   Cancel before the leave starts
    GET  /api/requests               List with total (filters + paging)

ERROR HANDLING:
  - 400: shape or period validation failures
  - 401: missing/invalid credentials or token
  - 403: caller does not own the resource
  - 404: missing member/entitlement/request
  - 409: business conflicts; concurrency conflicts carry retryable=true
  - 500: everything else
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Auth  *auth.Service
	Leave *leave.Service

	validate *validator.Validate
	log      *logrus.Logger
}

// NewHandler creates a new handler.
func NewHandler(authSvc *auth.Service, leaveSvc *leave.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		Auth:     authSvc,
		Leave:    leaveSvc,
		validate: validator.New(),
		log:      log,
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Signup registers a new member.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.Auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SignupResponse{ID: m.ID, Email: m.Email})
}

// Login authenticates a member and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoginResponse(m, token))
}

// =============================================================================
// ENTITLEMENT HANDLERS
// =============================================================================

// CreateEntitlement grants the caller an allotment for the target period.
func (h *Handler) CreateEntitlement(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req CreateEntitlementRequest
	if !h.decode(w, r, &req) {
		return
	}

	ent, err := h.Leave.CreateEntitlement(r.Context(), owner, req.PeriodKey)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntitlementDTO(ent))
}

// GetEntitlement fetches one of the caller's entitlements.
func (h *Handler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id := leave.EntitlementID(chi.URLParam(r, "id"))
	ent, err := h.Leave.GetEntitlement(r.Context(), owner, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntitlementDTO(ent))
}

// ListEntitlements lists the caller's entitlements with the unpaged total.
func (h *Handler) ListEntitlements(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	periodKey, err := intQuery(r, "period_key")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_key", err)
		return
	}
	offset, limit := paging(r)

	total, items, err := h.Leave.ListEntitlements(r.Context(), owner, periodKey, offset, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	dtos := make([]EntitlementDTO, len(items))
	for i := range items {
		dtos[i] = toEntitlementDTO(&items[i])
	}
	writeJSON(w, http.StatusOK, ListResponse{Total: total, Items: dtos})
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// SubmitRequest draws leave against one of the caller's entitlements.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req CreateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}

	typ, err := leave.ParseLeaveType(req.Type)
	if err != nil {
		h.respondError(w, err)
		return
	}

	created, err := h.Leave.CreateRequest(r.Context(), owner, leave.CreateRequestInput{
		EntitlementID: leave.EntitlementID(req.EntitlementID),
		Type:          typ,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		Days:          req.Days,
		Comment:       req.Comment,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(created))
}

// CancelRequest cancels one of the caller's active requests.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id := leave.RequestID(chi.URLParam(r, "id"))
	canceled, err := h.Leave.CancelRequest(r.Context(), owner, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(canceled))
}

// ListRequests lists the caller's leave requests with the unpaged total.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	cond, err := requestConditionFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	offset, limit := paging(r)

	total, items, err := h.Leave.ListRequests(r.Context(), owner, cond, offset, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(items))
	for i := range items {
		dtos[i] = toLeaveRequestDTO(&items[i])
	}
	writeJSON(w, http.StatusOK, ListResponse{Total: total, Items: dtos})
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func requestConditionFromQuery(r *http.Request) (leave.RequestCondition, error) {
	var cond leave.RequestCondition

	if v := r.URL.Query().Get("entitlement_id"); v != "" {
		id := leave.EntitlementID(v)
		cond.EntitlementID = &id
	}
	if v := r.URL.Query().Get("type"); v != "" {
		typ, err := leave.ParseLeaveType(v)
		if err != nil {
			return cond, err
		}
		cond.Type = &typ
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := leave.ParseRequestStatus(v)
		if err != nil {
			return cond, err
		}
		cond.Status = &status
	}

	bounds := []struct {
		name   string
		target **time.Time
	}{
		{"start_at_loe", &cond.StartAtLoe},
		{"start_at_goe", &cond.StartAtGoe},
		{"end_at_loe", &cond.EndAtLoe},
		{"end_at_goe", &cond.EndAtGoe},
	}
	for _, b := range bounds {
		v := r.URL.Query().Get(b.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return cond, err
		}
		*b.target = &t
	}
	return cond, nil
}

func intQuery(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func paging(r *http.Request) (offset, limit int64) {
	offset, _ = strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

// =============================================================================
// RESPONSES
// =============================================================================

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Authentication failed", err)
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email already registered", err)
	case errors.Is(err, auth.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "Member not found", err)
	case errors.Is(err, leave.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "Access denied", err)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case leave.IsRetryable(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     "Concurrent modification, please retry",
			Details:   err.Error(),
			Retryable: true,
		})
	case leave.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		h.log.WithError(err).Error("unhandled error")
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
