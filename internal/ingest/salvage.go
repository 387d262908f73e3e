package ingest

import (
	"fmt"
	"regexp"
)

var (
	salvageRowRE   = regexp.MustCompile(`(?s)<row[^>]*>(.*?)</row>`)
	salvageCellRE  = regexp.MustCompile(`(?s)<c[^>]*>.*?</c>`)
	salvageValueRE = regexp.MustCompile(`(?s)<v[^>]*>(.*?)</v>`)
	salvageTypeRE  = regexp.MustCompile(`t="([^"]*)"`)
)

// salvageSheetData recovers rows from a worksheet part that is not
// well-formed XML by scanning the raw markup for row, cell and value
// patterns. Shared-string references resolve by the same rule the
// structured parse uses. Recovering nothing at all counts as failure;
// an empty result would only push the problem downstream.
func salvageSheetData(content []byte, sharedStrings []string) ([][]Cell, error) {
	text := string(content)

	var rows [][]Cell
	for _, rowMatch := range salvageRowRE.FindAllStringSubmatch(text, -1) {
		var row []Cell
		for _, cellText := range salvageCellRE.FindAllString(rowMatch[1], -1) {
			row = append(row, salvageCell(cellText, sharedStrings))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows recovered from worksheet markup")
	}

	return rows, nil
}

// salvageCell extracts one cell's value and type from its raw markup,
// including the attributes of the opening tag so typed shared-string
// references are recognized.
func salvageCell(cellText string, sharedStrings []string) Cell {
	valueMatch := salvageValueRE.FindStringSubmatch(cellText)
	if valueMatch == nil {
		return Cell{}
	}

	cellType := ""
	if typeMatch := salvageTypeRE.FindStringSubmatch(cellText); typeMatch != nil {
		cellType = typeMatch[1]
	}

	return resolveCell(cellType, valueMatch[1], sharedStrings)
}
