package domain

import "testing"

func validSourceData() SourceData {
	return SourceData{
		SdID:      1,
		LiID:      1,
		TableName: "WELLS_ON",
		Columns: []ColumnMetadata{
			{Name: "well_id", Type: ColumnTypeBigInt},
			{Name: "location", Type: ColumnTypeGeometry},
			{Name: "drilled", Type: ColumnTypeDate},
		},
	}
}

func TestSourceDataValidate(t *testing.T) {
	if err := validSourceData().Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	badNames := []string{
		"wells_on",    // lowercase
		"1WELLS",      // leading digit
		"W",           // too short
		"WELLS ON",    // space
		"WELLS-ON",    // hyphen
		"",            // empty
	}
	for _, name := range badNames {
		sd := validSourceData()
		sd.TableName = name
		if err := sd.Validate(); err == nil {
			t.Errorf("table name %q accepted", name)
		}
	}

	noColumns := validSourceData()
	noColumns.Columns = nil
	if err := noColumns.Validate(); err == nil {
		t.Error("empty column list accepted")
	}

	blankColumn := validSourceData()
	blankColumn.Columns[1].Name = "  "
	if err := blankColumn.Validate(); err == nil {
		t.Error("blank column name accepted")
	}

	badType := validSourceData()
	badType.Columns[2].Type = "Varchar"
	if err := badType.Validate(); err == nil {
		t.Error("unknown column type accepted")
	}
}

func TestColumnTypePgName(t *testing.T) {
	tests := map[ColumnType]string{
		ColumnTypeText:              "text",
		ColumnTypeDoublePrecision:   "double precision",
		ColumnTypeTimestampWithZone: "timestamp with time zone",
		ColumnTypeJson:              "jsonb",
		ColumnTypeSmallIntArray:     "smallint[]",
	}
	for ct, want := range tests {
		if got := ct.PgName(); got != want {
			t.Errorf("%s.PgName() = %q, want %q", ct, got, want)
		}
	}
	if ColumnType("Varchar").Valid() {
		t.Error("Varchar reported valid")
	}
}
