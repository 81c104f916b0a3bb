package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ColumnType enumerates the declared kinds a source data column can take.
type ColumnType string

const (
	ColumnTypeText              ColumnType = "Text"
	ColumnTypeBoolean           ColumnType = "Boolean"
	ColumnTypeSmallInt          ColumnType = "SmallInt"
	ColumnTypeInteger           ColumnType = "Integer"
	ColumnTypeBigInt            ColumnType = "BigInt"
	ColumnTypeNumber            ColumnType = "Number"
	ColumnTypeReal              ColumnType = "Real"
	ColumnTypeDoublePrecision   ColumnType = "DoublePrecision"
	ColumnTypeMoney             ColumnType = "Money"
	ColumnTypeTimestamp         ColumnType = "Timestamp"
	ColumnTypeTimestampWithZone ColumnType = "TimestampWithZone"
	ColumnTypeDate              ColumnType = "Date"
	ColumnTypeTime              ColumnType = "Time"
	ColumnTypeInterval          ColumnType = "Interval"
	ColumnTypeGeometry          ColumnType = "Geometry"
	ColumnTypeJson              ColumnType = "Json"
	ColumnTypeUUID              ColumnType = "UUID"
	ColumnTypeSmallIntArray     ColumnType = "SmallIntArray"
)

// Valid reports whether the column type is one of the declared kinds.
func (c ColumnType) Valid() bool {
	_, ok := pgTypeNames[c]
	return ok
}

var pgTypeNames = map[ColumnType]string{
	ColumnTypeText:              "text",
	ColumnTypeBoolean:           "boolean",
	ColumnTypeSmallInt:          "smallint",
	ColumnTypeInteger:           "integer",
	ColumnTypeBigInt:            "bigint",
	ColumnTypeNumber:            "numeric",
	ColumnTypeReal:              "real",
	ColumnTypeDoublePrecision:   "double precision",
	ColumnTypeMoney:             "money",
	ColumnTypeTimestamp:         "timestamp without time zone",
	ColumnTypeTimestampWithZone: "timestamp with time zone",
	ColumnTypeDate:              "date",
	ColumnTypeTime:              "time",
	ColumnTypeInterval:          "interval",
	ColumnTypeGeometry:          "geometry",
	ColumnTypeJson:              "jsonb",
	ColumnTypeUUID:              "uuid",
	ColumnTypeSmallIntArray:     "smallint[]",
}

// PgName returns the Postgres type name the column kind maps to.
func (c ColumnType) PgName() string {
	return pgTypeNames[c]
}

// ColumnMetadata pairs a column name with its declared type.
type ColumnMetadata struct {
	Name string     `json:"name"`
	Type ColumnType `json:"column_type"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Z_][A-Z_0-9]{1,64}$`)

// SourceData is one ingested dataset table associated with a load instance.
type SourceData struct {
	SdID            int64            `json:"sd_id"`
	LiID            int64            `json:"li_id"`
	LoadSourceID    int16            `json:"load_source_id"`
	UserGenerated   bool             `json:"user_generated"`
	Options         map[string]any   `json:"options"`
	TableName       string           `json:"table_name"`
	Columns         []ColumnMetadata `json:"columns"`
	ToLoad          bool             `json:"to_load"`
	LoadedTimestamp *time.Time       `json:"loaded_timestamp,omitempty"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
}

// Validate checks the table name pattern and the column metadata list.
func (sd SourceData) Validate() error {
	if !tableNamePattern.MatchString(sd.TableName) {
		return ValidationFailed{Field: "table_name", Reason: "must match ^[A-Z_][A-Z_0-9]{1,64}$"}
	}
	if len(sd.Columns) == 0 {
		return ValidationFailed{Field: "columns", Reason: "must not be empty"}
	}
	for i, column := range sd.Columns {
		if strings.TrimSpace(column.Name) == "" {
			return ValidationFailed{
				Field:  fmt.Sprintf("columns[%d].name", i),
				Reason: "must not be blank",
			}
		}
		if !column.Type.Valid() {
			return ValidationFailed{
				Field:  fmt.Sprintf("columns[%d].column_type", i),
				Reason: fmt.Sprintf("unknown column type %q", column.Type),
			}
		}
	}
	return nil
}
