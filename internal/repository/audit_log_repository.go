package repository

import (
	"context"
	"fmt"

	"github.com/geoflow/geoflow/internal/domain"
)

// auditLogRepository implements AuditLogRepository over pgx. The table has no
// update or delete path; transaction and statement timestamps plus the
// transaction id come from Postgres so records appended in one transaction
// share them.
type auditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO geoflow.audit_logs (
			event_id, schema_name, table_name, relid, session_user_id,
			action_tstamp_tx, action_tstamp_stm, action_tstamp_clk, transaction_id,
			client_application, client_addr, client_port, client_query,
			action, row_data, changed_fields, statement_only
		 ) VALUES (
			$1, $2, $3, $4, $5,
			transaction_timestamp(), statement_timestamp(), $6, txid_current(),
			$7, NULLIF($8, '')::inet, NULLIF($9, 0), $10,
			$11, $12, $13, $14
		 )`,
		entry.EventID,
		entry.SchemaName,
		entry.TableName,
		entry.RelID,
		entry.SessionUserID,
		entry.ClkStamp,
		entry.Application,
		entry.ClientAddr,
		entry.ClientPort,
		entry.Query,
		string(entry.Action),
		entry.RowData,
		entry.ChangedFields,
		entry.StatementOnly,
	); err != nil {
		return fmt.Errorf("failed to append audit record: %w", translateError(err))
	}
	return nil
}

func (r *auditLogRepository) ListByTable(ctx context.Context, tableName string, limit, offset int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	rows, err := r.db.Query(
		ctx,
		`SELECT event_id, schema_name, table_name, relid, session_user_id,
		        action_tstamp_tx, action_tstamp_stm, action_tstamp_clk, transaction_id,
		        client_application, COALESCE(client_addr::text, ''), COALESCE(client_port, 0),
		        client_query, action, row_data, changed_fields, statement_only
		 FROM geoflow.audit_logs
		 WHERE table_name = $1
		 ORDER BY action_tstamp_tx DESC, event_id
		 LIMIT $2 OFFSET $3`,
		tableName,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditLogEntry{}
	for rows.Next() {
		var (
			entry  domain.AuditLogEntry
			action string
		)
		if err := rows.Scan(
			&entry.EventID,
			&entry.SchemaName,
			&entry.TableName,
			&entry.RelID,
			&entry.SessionUserID,
			&entry.TxStamp,
			&entry.StmStamp,
			&entry.ClkStamp,
			&entry.TransactionID,
			&entry.Application,
			&entry.ClientAddr,
			&entry.ClientPort,
			&entry.Query,
			&action,
			&entry.RowData,
			&entry.ChangedFields,
			&entry.StatementOnly,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		entry.Action = domain.AuditAction(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return entries, nil
}
