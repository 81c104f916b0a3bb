package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/repository"
)

// Service writes audit history to xlsx workbooks for offline review.
type Service struct {
	logs repository.AuditLogRepository
	dir  string
}

func NewService(logs repository.AuditLogRepository, dir string) *Service {
	return &Service{logs: logs, dir: dir}
}

var auditHeaders = []string{
	"event_id", "schema_name", "table_name", "relid", "session_user_id",
	"action_tstamp_tx", "action_tstamp_clk", "transaction_id",
	"client_application", "client_addr", "action", "row_data",
	"changed_fields", "statement_only",
}

// ExportAuditLog writes the audit records of one table into a timestamped
// workbook under the export directory and returns the file path.
func (s *Service) ExportAuditLog(ctx context.Context, tableName string, limit, offset int) (string, error) {
	entries, err := s.logs.ListByTable(ctx, tableName, limit, offset)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[export] failed to close workbook: %v", err)
		}
	}()

	const sheet = "Audit"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, header := range auditHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, entry := range entries {
		values := []any{
			entry.EventID.String(),
			entry.SchemaName,
			entry.TableName,
			entry.RelID,
			entry.SessionUserID,
			entry.TxStamp.Format(time.RFC3339Nano),
			entry.ClkStamp.Format(time.RFC3339Nano),
			int64Value(entry.TransactionID),
			entry.Application,
			entry.ClientAddr,
			string(entry.Action),
			imageJSON(entry.RowData),
			imageJSON(entry.ChangedFields),
			entry.StatementOnly,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return "", fmt.Errorf("failed to resolve cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("audit_%s_%s.xlsx", tableName, time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	log.Printf("[export] wrote %d audit records for %s to %s", len(entries), tableName, path)
	return path, nil
}

func int64Value(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func imageJSON(image domain.RowImage) string {
	if image == nil {
		return ""
	}
	data, err := json.Marshal(image)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(data)
}
