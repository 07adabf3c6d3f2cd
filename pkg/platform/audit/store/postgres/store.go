package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"avd/pkg/domain"
	audit "avd/pkg/platform/audit"
	"avd/pkg/platform/sentinel"
)

// Store persists entries in the append-only audit_entries table.
// Writes always go through the pool, never a caller's transaction, so a
// rolled-back business write cannot take its failure entry with it.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `id, actor_id, actor_name, actor_email, action, resource, resource_id,
	old_value, new_value, success, error_message, created_at,
	ip_address, user_agent, client, request_id, digest`

// Append inserts an entry. Duplicate IDs are ignored so retried writes stay idempotent.
func (s *Store) Append(ctx context.Context, e audit.Entry) error {
	query := `INSERT INTO audit_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		int64(e.ActorID),
		e.ActorName,
		e.ActorEmail,
		e.Action,
		e.Resource,
		e.ResourceID,
		nullableJSON(e.OldValue),
		nullableJSON(e.NewValue),
		e.Success,
		e.ErrorMessage,
		e.Timestamp,
		e.IPAddress,
		e.UserAgent,
		e.Client,
		e.RequestID,
		e.Digest,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, newest first.
func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	filter = filter.Normalize()
	where, args := buildWhere(filter)

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM audit_entries %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, entryColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Latest returns the newest entry for a resource, optionally narrowed to one id.
func (s *Store) Latest(ctx context.Context, resource, resourceID string) (*audit.Entry, error) {
	where, args := buildWhere(audit.Filter{Resource: resource, ResourceID: resourceID})
	query := fmt.Sprintf(`SELECT %s FROM audit_entries %s
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, entryColumns, where)

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest audit entry: %w", err)
	}
	return e, nil
}

func buildWhere(f audit.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if !f.ActorID.IsZero() {
		add("actor_id = $%d", int64(f.ActorID))
	}
	if len(f.Actions) > 0 {
		add("action = ANY($%d)", pq.Array(f.Actions))
	}
	if f.Resource != "" {
		add("resource = $%d", f.Resource)
	}
	if f.ResourceID != "" {
		add("resource_id = $%d", f.ResourceID)
	}
	if f.Success != nil {
		add("success = $%d", *f.Success)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.Entry, error) {
	var (
		e        audit.Entry
		actorID  int64
		oldValue []byte
		newValue []byte
	)
	err := row.Scan(
		&e.ID,
		&actorID,
		&e.ActorName,
		&e.ActorEmail,
		&e.Action,
		&e.Resource,
		&e.ResourceID,
		&oldValue,
		&newValue,
		&e.Success,
		&e.ErrorMessage,
		&e.Timestamp,
		&e.IPAddress,
		&e.UserAgent,
		&e.Client,
		&e.RequestID,
		&e.Digest,
	)
	if err != nil {
		return nil, err
	}
	e.ActorID = domain.UserID(actorID)
	e.OldValue = oldValue
	e.NewValue = newValue
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// nullableJSON maps an absent value to SQL NULL rather than an empty document.
func nullableJSON(v []byte) any {
	if len(v) == 0 {
		return nil
	}
	return string(v)
}
