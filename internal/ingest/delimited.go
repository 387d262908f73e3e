package ingest

import (
	"encoding/csv"
	"fmt"
	"strings"

	"crmbridge/internal/textnorm"
)

// DelimitedSheetName is the resolved sheet name reported for delimited
// activity input, which has no sheets of its own.
const DelimitedSheetName = "CSVデータ"

// readDelimited parses a cp932-encoded CSV activity file. Files that do
// not decode as cp932 but are valid UTF-8 are accepted as-is, so
// hand-edited exports keep working.
func readDelimited(data []byte) ([][]Cell, error) {
	decoded, err := textnorm.DecodeShiftJIS(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited activity data: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("delimited activity data has no rows")
	}

	rows := make([][]Cell, len(records))
	for i, r := range records {
		rows[i] = cellsFromStrings(r)
	}
	return rows, nil
}
