package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation an audit record describes.
type AuditAction string

const (
	AuditActionInsert   AuditAction = "I"
	AuditActionUpdate   AuditAction = "U"
	AuditActionDelete   AuditAction = "D"
	AuditActionTruncate AuditAction = "T"
)

// RowImage is a flat column name to value snapshot of one row.
type RowImage map[string]any

// Clone returns a shallow copy of the image.
func (r RowImage) Clone() RowImage {
	if r == nil {
		return nil
	}
	out := make(RowImage, len(r))
	for key, value := range r {
		out[key] = value
	}
	return out
}

// Without returns a copy of the image with the named columns removed.
func (r RowImage) Without(columns map[string]struct{}) RowImage {
	if r == nil {
		return nil
	}
	out := make(RowImage, len(r))
	for key, value := range r {
		if _, ignored := columns[key]; ignored {
			continue
		}
		out[key] = value
	}
	return out
}

// AuditLogEntry is one immutable change-capture record. Entries are created
// exactly once per qualifying mutation and never updated or deleted.
type AuditLogEntry struct {
	EventID       uuid.UUID   `json:"event_id"`
	SchemaName    string      `json:"schema_name"`
	TableName     string      `json:"table_name"`
	RelID         int64       `json:"relid"`
	SessionUserID int64       `json:"session_user_id"`
	TxStamp       time.Time   `json:"action_tstamp_tx"`
	StmStamp      time.Time   `json:"action_tstamp_stm"`
	ClkStamp      time.Time   `json:"action_tstamp_clk"`
	TransactionID *int64      `json:"transaction_id,omitempty"`
	Application   string      `json:"client_application,omitempty"`
	ClientAddr    string      `json:"client_addr,omitempty"`
	ClientPort    int         `json:"client_port,omitempty"`
	Query         *string     `json:"client_query,omitempty"`
	Action        AuditAction `json:"action"`
	RowData       RowImage    `json:"row_data,omitempty"`
	ChangedFields RowImage    `json:"changed_fields,omitempty"`
	StatementOnly bool        `json:"statement_only"`
}
