package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/geoflow/geoflow/internal/auth"
	"github.com/geoflow/geoflow/internal/domain"
)

// TableConfig controls how mutations on one audited table are recorded.
// Ignored columns are dropped from row images and never appear in diffs, so
// high churn bookkeeping fields do not flood the log.
type TableConfig struct {
	LogRowLevel    bool
	LogQueryText   bool
	IgnoredColumns []string
}

type tableConfig struct {
	logRowLevel  bool
	logQueryText bool
	ignored      map[string]struct{}
}

// Event describes one committed mutation handed to the engine. OldImage is
// required for updates and deletes, NewImage for inserts and updates.
type Event struct {
	SchemaName    string
	TableName     string
	RelID         int64
	Action        domain.AuditAction
	OldImage      domain.RowImage
	NewImage      domain.RowImage
	StatementOnly bool
}

// Appender persists finished audit records. The engine only ever appends;
// records are immutable once written.
type Appender interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
}

// Engine turns mutation events into audit records. Entities never call it
// themselves; the workflow layer invokes Capture once per committed mutation
// inside the same unit of work, so every audited table shares identical diff
// semantics.
type Engine struct {
	configs map[string]tableConfig
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		configs: map[string]tableConfig{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Register configures auditing for one table. Unregistered tables fall back
// to row level capture with query text and no ignored columns.
func (e *Engine) Register(table string, cfg TableConfig) {
	ignored := make(map[string]struct{}, len(cfg.IgnoredColumns))
	for _, column := range cfg.IgnoredColumns {
		ignored[column] = struct{}{}
	}
	e.configs[table] = tableConfig{
		logRowLevel:  cfg.LogRowLevel,
		logQueryText: cfg.LogQueryText,
		ignored:      ignored,
	}
}

func (e *Engine) configFor(table string) tableConfig {
	if cfg, ok := e.configs[table]; ok {
		return cfg
	}
	return tableConfig{logRowLevel: true, logQueryText: true, ignored: map[string]struct{}{}}
}

// Capture builds the audit record for the event and appends it. It returns
// the appended record, or nil when the record was suppressed because an
// update touched only ignored columns — the one designed no-op in the audit
// path.
func (e *Engine) Capture(ctx context.Context, logs Appender, session auth.Session, event Event) (*domain.AuditLogEntry, error) {
	cfg := e.configFor(event.TableName)

	entry := domain.AuditLogEntry{
		EventID:       uuid.New(),
		SchemaName:    event.SchemaName,
		TableName:     event.TableName,
		RelID:         event.RelID,
		SessionUserID: session.UserID,
		ClkStamp:      e.now(),
		Application:   session.Application,
		ClientAddr:    session.RemoteAddr,
		ClientPort:    session.RemotePort,
		Action:        event.Action,
	}
	if session.Query != "" {
		query := session.Query
		entry.Query = &query
	}

	statementOnly := event.StatementOnly || !cfg.logRowLevel
	if statementOnly {
		entry.StatementOnly = true
	} else {
		switch event.Action {
		case domain.AuditActionUpdate:
			entry.RowData = event.OldImage.Without(cfg.ignored)
			changed, err := changedFields(entry.RowData, event.NewImage)
			if err != nil {
				return nil, err
			}
			if len(changed) == 0 {
				// Update touched only ignored columns; no record.
				return nil, nil
			}
			entry.ChangedFields = changed
		case domain.AuditActionDelete:
			entry.RowData = event.OldImage.Without(cfg.ignored)
		case domain.AuditActionInsert:
			entry.RowData = event.NewImage.Without(cfg.ignored)
		case domain.AuditActionTruncate:
			entry.StatementOnly = true
		default:
			return nil, fmt.Errorf("unknown audit action %q", event.Action)
		}
	}

	if !cfg.logQueryText {
		entry.Query = nil
	}

	if err := logs.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit record: %w", err)
	}
	return &entry, nil
}

// changedFields returns the subset of the new image whose values differ from
// the prior row data. The comparison is restricted to columns present in the
// prior data, so ignored columns never surface in the diff.
func changedFields(rowData domain.RowImage, newImage domain.RowImage) (domain.RowImage, error) {
	changed := domain.RowImage{}
	for column, oldValue := range rowData {
		newValue, ok := newImage[column]
		if !ok {
			continue
		}
		same, err := equalValues(oldValue, newValue)
		if err != nil {
			return nil, err
		}
		if !same {
			changed[column] = newValue
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}
	return changed, nil
}

// equalValues compares two column values through their canonical JSON form,
// which normalizes numeric widths and nested structures.
func equalValues(a, b any) (bool, error) {
	left, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("failed to canonicalize audit value: %w", err)
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false, fmt.Errorf("failed to canonicalize audit value: %w", err)
	}
	return string(left) == string(right), nil
}
