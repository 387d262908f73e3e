package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	sharedStringsPart = "xl/sharedStrings.xml"
	workbookPart      = "xl/workbook.xml"
	worksheetPrefix   = "xl/worksheets/sheet"
)

var (
	sharedStringRE = regexp.MustCompile(`(?s)<si>.*?<t[^>]*>(.*?)</t>.*?</si>`)
	sheetEntryRE   = regexp.MustCompile(`<sheet name="([^"]+)" sheetId="(\d+)" r:id="([^"]+)"/>`)
)

// containerParts is what the low-level container read recovers from a
// workbook that the structured reader refused: the shared-string table,
// the selected worksheet part and the sheet name it resolved to.
type containerParts struct {
	SharedStrings []string
	SheetName     string
	PartName      string
	Content       []byte
}

// openContainer treats the workbook bytes as a ZIP package and pulls
// out the pieces the XML and salvage layers need. The target part is
// chosen by sheet name from the workbook manifest, falling back to the
// first worksheet part in archive order.
func openContainer(data []byte, sheetHint string) (*containerParts, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook container: %w", err)
	}

	parts := &containerParts{
		SharedStrings: extractSharedStrings(zr),
	}

	mapping := extractSheetMapping(zr)

	if part, ok := mapping[sheetHint]; ok {
		parts.SheetName = sheetHint
		parts.PartName = part
	} else {
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, worksheetPrefix) && strings.HasSuffix(f.Name, ".xml") {
				parts.PartName = f.Name
				break
			}
		}
		if parts.PartName == "" {
			return nil, fmt.Errorf("no worksheet part found in container")
		}
		parts.SheetName = sheetNameForPart(mapping, parts.PartName)
	}

	content, err := readZipFile(zr, parts.PartName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet part %s: %w", parts.PartName, err)
	}
	parts.Content = content

	return parts, nil
}

// extractSharedStrings reads the interned-string table. A workbook
// without one simply yields an empty table.
func extractSharedStrings(zr *zip.Reader) []string {
	content, err := readZipFile(zr, sharedStringsPart)
	if err != nil {
		return nil
	}

	matches := sharedStringRE.FindAllStringSubmatch(string(content), -1)
	table := make([]string, 0, len(matches))
	for _, m := range matches {
		table = append(table, m[1])
	}
	return table
}

// extractSheetMapping reads the workbook manifest and maps each sheet
// name to its worksheet part name.
func extractSheetMapping(zr *zip.Reader) map[string]string {
	content, err := readZipFile(zr, workbookPart)
	if err != nil {
		return nil
	}

	mapping := make(map[string]string)
	for _, m := range sheetEntryRE.FindAllStringSubmatch(string(content), -1) {
		mapping[m[1]] = fmt.Sprintf("xl/worksheets/sheet%s.xml", m[2])
	}
	return mapping
}

func sheetNameForPart(mapping map[string]string, part string) string {
	for name, p := range mapping {
		if p == part {
			return name
		}
	}
	return part
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("part %s not found", name)
}

// xmlWorksheet mirrors just enough of the worksheet markup to walk
// rows, cells and values.
type xmlWorksheet struct {
	XMLName xml.Name `xml:"worksheet"`
	Rows    []xmlRow `xml:"sheetData>row"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"c"`
}

type xmlCell struct {
	Type  string  `xml:"t,attr"`
	Value *string `xml:"v"`
}

// parseSheetXML structurally parses a worksheet part. Shared-string
// references resolve through the interned table; a reference whose
// index is absent resolves to an empty cell, as does a cell without a
// value element.
func parseSheetXML(content []byte, sharedStrings []string) ([][]Cell, error) {
	var sheet xmlWorksheet
	if err := xml.Unmarshal(content, &sheet); err != nil {
		return nil, fmt.Errorf("failed to parse worksheet xml: %w", err)
	}

	rows := make([][]Cell, 0, len(sheet.Rows))
	for _, xr := range sheet.Rows {
		row := make([]Cell, 0, len(xr.Cells))
		for _, xc := range xr.Cells {
			if xc.Value == nil {
				row = append(row, Cell{})
				continue
			}
			row = append(row, resolveCell(xc.Type, *xc.Value, sharedStrings))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet has no rows")
	}

	return rows, nil
}

// resolveCell turns one raw cell value into a typed Cell, applying the
// shared-string resolution rule for cells typed "s".
func resolveCell(cellType, raw string, sharedStrings []string) Cell {
	if cellType == "s" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 || idx >= len(sharedStrings) {
			return Cell{}
		}
		return Cell{Value: sharedStrings[idx]}
	}

	numeric := (cellType == "" || cellType == "n") && raw != ""
	return Cell{Value: raw, Numeric: numeric}
}
