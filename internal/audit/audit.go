// Package audit appends one record per entity mutation to the append-only
// admin_audit_log table.
//
// Audit writes are best-effort by policy: the primary mutation's response is
// never blocked or failed by an audit problem. A failed insert is logged and
// counted in a Prometheus counter so an incomplete trail is observable, but
// the error is not propagated. Rows are only ever inserted; retention is an
// external concern.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/propllia/backoffice/internal/telemetry"
)

// Mutation actions recorded in the log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Log writes and reads the mutation trail.
type Log struct {
	db *sqlx.DB
}

// NewLog creates a Log backed by the given pool.
func NewLog(db *sqlx.DB) *Log {
	return &Log{db: db}
}

// Record appends one audit row. oldValues and newValues are marshaled to
// JSONB; pass nil for either to store NULL (deletes carry no new values, and
// no pre-image is captured in the current design). Failures are swallowed
// after logging; callers must not treat Record as a precondition of the
// mutation they just performed.
func (l *Log) Record(ctx context.Context, entityType, entityID, action string, oldValues, newValues interface{}) {
	if err := l.insert(ctx, entityType, entityID, action, oldValues, newValues); err != nil {
		telemetry.AuditWriteFailuresTotal.Inc()
		slog.Error("audit write failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
	}
}

func (l *Log) insert(ctx context.Context, entityType, entityID, action string, oldValues, newValues interface{}) error {
	oldJSON, err := marshalNullable(oldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalNullable(newValues)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO admin_audit_log (entity_type, entity_id, action, old_values, new_values, changed_fields)
		 VALUES ($1, $2::uuid, $3, $4, $5, '{}')`,
		entityType, entityID, action, oldJSON, newJSON,
	)
	return err
}

// marshalNullable returns nil (SQL NULL) for a nil value, JSON bytes otherwise.
func marshalNullable(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Recent returns up to limit audit rows, newest first, as a JSON array.
// Limit defaults to 50 and is capped at 500.
func (l *Log) Recent(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	var data json.RawMessage
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
			SELECT * FROM admin_audit_log ORDER BY created_at DESC LIMIT $1
		 ) t`, limit,
	).Scan(&data)
	return data, err
}

// ForEntity returns the full trail for one entity, newest first, as a JSON array.
func (l *Log) ForEntity(ctx context.Context, entityType, entityID string) (json.RawMessage, error) {
	var data json.RawMessage
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(json_agg(row_to_json(t)), '[]') FROM (
			SELECT * FROM admin_audit_log
			WHERE entity_type = $1 AND entity_id = $2::uuid
			ORDER BY created_at DESC
		 ) t`, entityType, entityID,
	).Scan(&data)
	return data, err
}
