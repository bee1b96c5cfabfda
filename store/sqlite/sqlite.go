/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements leave.Store, leave.OwnerDirectory and auth.MemberStore over a
  single SQLite database. The same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  members:        accounts that own entitlements
  entitlements:   one row per (owner, period), versioned balance
  leave_requests: draws against entitlements

OPTIMISTIC LOCKING:
  Entitlement mutations go through a single compare-and-increment UPDATE:

    UPDATE entitlements SET remaining_days = ?, version = version + 1
    WHERE id = ? AND version = ?

  Zero rows affected means another writer advanced the version since the
  caller loaded the row; the whole transaction rolls back with
  leave.ErrConcurrencyConflict. The request insert/update rides in the
  same database transaction, so request and balance can never diverge.

INDEXES:
  uk_entitlements_owner_period: one entitlement per (owner, period)
  idx_requests_overlap:         hot path for the overlap EXISTS query

TIME ENCODING:
  Instants are stored as RFC3339 UTC text. With a fixed zone and format,
  lexicographic comparison in SQL matches chronological order, which the
  overlap and range filters rely on.

WAL MODE:
  The database is opened with WAL for better concurrency: readers don't
  block, one writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/leave.db")   // or ":memory:"

SEE ALSO:
  - leave/store.go: interface definitions and the persist contract
  - leave/store/memory.go: in-memory twin for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/leave"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		last_login_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uk_members_email ON members(email);

	CREATE TABLE IF NOT EXISTS entitlements (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES members(id),
		period_key INTEGER NOT NULL,
		total_days TEXT NOT NULL,
		remaining_days TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- At most one entitlement per (owner, period)
	CREATE UNIQUE INDEX IF NOT EXISTS uk_entitlements_owner_period
		ON entitlements(owner_id, period_key);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		entitlement_id TEXT NOT NULL REFERENCES entitlements(id),
		type TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		days TEXT NOT NULL,
		status TEXT NOT NULL,
		comment TEXT,
		canceled_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: the overlap detector's EXISTS query
	CREATE INDEX IF NOT EXISTS idx_requests_overlap
		ON leave_requests(entitlement_id, status, start_at, end_at);

	CREATE INDEX IF NOT EXISTS idx_requests_entitlement
		ON leave_requests(entitlement_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// isUniqueViolation unwraps the driver error for constraint detection.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// =============================================================================
// ENTITLEMENTS
// =============================================================================

func (s *Store) InsertEntitlement(ctx context.Context, ent *leave.Entitlement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entitlements (id, owner_id, period_key, total_days, remaining_days, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(ent.ID), string(ent.OwnerID), ent.PeriodKey,
		ent.TotalDays.String(), ent.RemainingDays.String(), ent.Version,
		encodeTime(ent.CreatedAt))
	if isUniqueViolation(err) {
		return leave.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetEntitlement(ctx context.Context, id leave.EntitlementID) (*leave.Entitlement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, period_key, total_days, remaining_days, version, created_at
		FROM entitlements WHERE id = ?`, string(id))
	ent, err := scanEntitlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrEntitlementNotFound
	}
	return ent, err
}

func (s *Store) CountEntitlements(ctx context.Context, cond leave.EntitlementCondition) (int64, error) {
	where, args := entitlementWhere(cond)
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entitlements "+where, args...).Scan(&total)
	return total, err
}

func (s *Store) ListEntitlements(ctx context.Context, cond leave.EntitlementCondition, offset, limit int64) ([]leave.Entitlement, error) {
	where, args := entitlementWhere(cond)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, period_key, total_days, remaining_days, version, created_at
		FROM entitlements `+where+`
		ORDER BY period_key DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []leave.Entitlement
	for rows.Next() {
		ent, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ent)
	}
	return items, rows.Err()
}

func entitlementWhere(cond leave.EntitlementCondition) (string, []any) {
	clauses := []string{"owner_id = ?"}
	args := []any{string(cond.OwnerID)}
	if cond.PeriodKey != nil {
		clauses = append(clauses, "period_key = ?")
		args = append(args, *cond.PeriodKey)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntitlement(row rowScanner) (*leave.Entitlement, error) {
	var (
		ent                      leave.Entitlement
		id, owner                string
		total, remaining, create string
	)
	if err := row.Scan(&id, &owner, &ent.PeriodKey, &total, &remaining, &ent.Version, &create); err != nil {
		return nil, err
	}
	ent.ID = leave.EntitlementID(id)
	ent.OwnerID = leave.OwnerID(owner)

	var err error
	if ent.TotalDays, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if ent.RemainingDays, err = decimal.NewFromString(remaining); err != nil {
		return nil, err
	}
	if ent.CreatedAt, err = decodeTime(create); err != nil {
		return nil, err
	}
	return &ent, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.entitlement_id, r.type, r.start_at, r.end_at, r.days, r.status, r.comment, r.canceled_at, r.created_at
		FROM leave_requests r WHERE r.id = ?`, string(id))
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrRequestNotFound
	}
	return req, err
}

func (s *Store) ExistsOverlap(ctx context.Context, cond leave.RequestCondition) (bool, error) {
	where, args := requestWhere(cond)
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM leave_requests r
			JOIN entitlements e ON e.id = r.entitlement_id `+where+`)`, args...).Scan(&exists)
	return exists, err
}

// PersistCreate writes the request and the debited entitlement in one
// database transaction, guarded by the entitlement version.
func (s *Store) PersistCreate(ctx context.Context, req *leave.LeaveRequest, ent *leave.Entitlement) error {
	return s.withVersionedWrite(ctx, ent, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO leave_requests (id, entitlement_id, type, start_at, end_at, days, status, comment, canceled_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(req.ID), string(req.EntitlementID), string(req.Type),
			encodeTime(req.StartAt), encodeTime(req.EndAt), req.Days.String(),
			string(req.Status), req.Comment, encodeTimePtr(req.CanceledAt),
			encodeTime(req.CreatedAt))
		return err
	})
}

// PersistCancel writes the canceled request and the credited entitlement
// in one database transaction, guarded by the entitlement version.
func (s *Store) PersistCancel(ctx context.Context, req *leave.LeaveRequest, ent *leave.Entitlement) error {
	return s.withVersionedWrite(ctx, ent, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE leave_requests SET status = ?, canceled_at = ? WHERE id = ?`,
			string(req.Status), encodeTimePtr(req.CanceledAt), string(req.ID))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return leave.ErrRequestNotFound
		}
		return nil
	})
}

// withVersionedWrite runs the compare-and-increment entitlement update plus
// fn inside a single transaction. On success the in-memory version is
// advanced to match the stored row.
func (s *Store) withVersionedWrite(ctx context.Context, ent *leave.Entitlement, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE entitlements SET remaining_days = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		ent.RemainingDays.String(), string(ent.ID), ent.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrConcurrencyConflict
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	ent.Version++
	return nil
}

func (s *Store) CountRequests(ctx context.Context, cond leave.RequestCondition) (int64, error) {
	where, args := requestWhere(cond)
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leave_requests r
		JOIN entitlements e ON e.id = r.entitlement_id `+where, args...).Scan(&total)
	return total, err
}

func (s *Store) ListRequests(ctx context.Context, cond leave.RequestCondition, offset, limit int64) ([]leave.LeaveRequest, error) {
	where, args := requestWhere(cond)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.entitlement_id, r.type, r.start_at, r.end_at, r.days, r.status, r.comment, r.canceled_at, r.created_at
		FROM leave_requests r
		JOIN entitlements e ON e.id = r.entitlement_id `+where+`
		ORDER BY r.start_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	return items, rows.Err()
}

// requestWhere builds the owner-scoped filter. RFC3339 UTC text compares
// lexicographically in chronological order, so the loe/goe bounds and the
// overlap predicate are plain string comparisons.
func requestWhere(cond leave.RequestCondition) (string, []any) {
	clauses := []string{"e.owner_id = ?"}
	args := []any{string(cond.OwnerID)}

	if cond.EntitlementID != nil {
		clauses = append(clauses, "r.entitlement_id = ?")
		args = append(args, string(*cond.EntitlementID))
	}
	if cond.Type != nil {
		clauses = append(clauses, "r.type = ?")
		args = append(args, string(*cond.Type))
	}
	if cond.Status != nil {
		clauses = append(clauses, "r.status = ?")
		args = append(args, string(*cond.Status))
	}
	if cond.StartAtLoe != nil {
		clauses = append(clauses, "r.start_at <= ?")
		args = append(args, encodeTime(*cond.StartAtLoe))
	}
	if cond.StartAtGoe != nil {
		clauses = append(clauses, "r.start_at >= ?")
		args = append(args, encodeTime(*cond.StartAtGoe))
	}
	if cond.EndAtLoe != nil {
		clauses = append(clauses, "r.end_at <= ?")
		args = append(args, encodeTime(*cond.EndAtLoe))
	}
	if cond.EndAtGoe != nil {
		clauses = append(clauses, "r.end_at >= ?")
		args = append(args, encodeTime(*cond.EndAtGoe))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanRequest(row rowScanner) (*leave.LeaveRequest, error) {
	var (
		req                      leave.LeaveRequest
		id, entID, typ, status   string
		start, end, days, create string
		comment, canceled        sql.NullString
	)
	if err := row.Scan(&id, &entID, &typ, &start, &end, &days, &status, &comment, &canceled, &create); err != nil {
		return nil, err
	}
	req.ID = leave.RequestID(id)
	req.EntitlementID = leave.EntitlementID(entID)
	req.Type = leave.LeaveType(typ)
	req.Status = leave.RequestStatus(status)
	req.Comment = comment.String

	var err error
	if req.StartAt, err = decodeTime(start); err != nil {
		return nil, err
	}
	if req.EndAt, err = decodeTime(end); err != nil {
		return nil, err
	}
	if req.Days, err = decimal.NewFromString(days); err != nil {
		return nil, err
	}
	if req.CreatedAt, err = decodeTime(create); err != nil {
		return nil, err
	}
	if canceled.Valid {
		t, err := decodeTime(canceled.String)
		if err != nil {
			return nil, err
		}
		req.CanceledAt = &t
	}
	return &req, nil
}

// =============================================================================
// MEMBERS
// =============================================================================

func (s *Store) InsertMember(ctx context.Context, m *auth.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, email, password_hash, last_login_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Email, m.PasswordHash, encodeTimePtr(m.LastLoginAt), encodeTime(m.CreatedAt))
	if isUniqueViolation(err) {
		return auth.ErrEmailTaken
	}
	return err
}

func (s *Store) GetMemberByEmail(ctx context.Context, email string) (*auth.Member, error) {
	return s.getMember(ctx, "email = ?", email)
}

func (s *Store) GetMember(ctx context.Context, id string) (*auth.Member, error) {
	return s.getMember(ctx, "id = ?", id)
}

func (s *Store) getMember(ctx context.Context, where string, arg any) (*auth.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, last_login_at, created_at
		FROM members WHERE `+where, arg)

	var (
		m         auth.Member
		lastLogin sql.NullString
		created   string
	)
	err := row.Scan(&m.ID, &m.Email, &m.PasswordHash, &lastLogin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t, err := decodeTime(lastLogin.String)
		if err != nil {
			return nil, err
		}
		m.LastLoginAt = &t
	}
	return &m, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE members SET last_login_at = ? WHERE id = ?", encodeTime(at), id)
	return err
}

// OwnerExists implements leave.OwnerDirectory.
func (s *Store) OwnerExists(ctx context.Context, owner leave.OwnerID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM members WHERE id = ?)", string(owner)).Scan(&exists)
	return exists, err
}
