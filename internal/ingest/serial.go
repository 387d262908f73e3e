package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateColumnIndex is the fixed position of the activity-date column.
// The upstream export carries the date in the 6th column regardless of
// how the header row is labelled.
const dateColumnIndex = 5

// ConvertSerialDate converts a spreadsheet date-serial value to an ISO
// calendar date. Values that are not numeric, or fall outside the
// plausible serial range (0, 100000), come back unchanged. Serials of
// 60 and above are corrected for the historical phantom leap day
// before conversion.
func ConvertSerialDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	serial, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return value
	}
	if serial <= 0 || serial >= 100000 {
		return value
	}

	if serial >= 60 {
		serial--
	}

	base := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	converted := base.AddDate(0, 0, int(math.Floor(serial-1)))
	return converted.Format("2006-01-02")
}

// convertDateColumn applies serial-date conversion to the fixed date
// column of every body row. Rows narrower than the column are left
// alone.
func convertDateColumn(rows [][]Cell) {
	for _, row := range rows {
		if len(row) > dateColumnIndex {
			converted := ConvertSerialDate(row[dateColumnIndex].Value)
			if converted != row[dateColumnIndex].Value {
				row[dateColumnIndex] = Cell{Value: converted, Numeric: false}
			}
		}
	}
}
