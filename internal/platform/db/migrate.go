package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS entity_audit_log (
		event_id    UUID PRIMARY KEY,
		actor       TEXT NOT NULL,
		action      TEXT NOT NULL,
		entity      TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		meta        JSONB NOT NULL DEFAULT '{}'::jsonb,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS entity_audit_log_entity_idx ON entity_audit_log (entity, entity_id, occurred_at DESC)`,
}

// EnsureAuditSchema creates the audit journal table when missing.
func EnsureAuditSchema(ctx context.Context, db TxBeginner) error {
	return WithTx(ctx, db, func(tx pgx.Tx) error {
		for _, stmt := range auditSchema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("platform/db: migrate audit schema: %w", err)
			}
		}
		return nil
	})
}
