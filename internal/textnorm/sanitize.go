package textnorm

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// controlRE matches C0 controls except TAB and LF, plus DEL. CR is
// handled separately so CRLF folds to a single newline first.
var controlRE = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

// CleanText removes spreadsheet carriage-return artifacts and control
// characters from a cell value, folding all line endings to LF.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	t := strings.ReplaceAll(s, "_x000D_", "")
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	return controlRE.ReplaceAllString(t, "")
}

// EncodeSafe re-encodes s into the narrowest form the Shift-JIS output
// encoding accepts. Representable strings pass through untouched;
// unrepresentable runes become '?', never an error.
func EncodeSafe(s string) string {
	if s == "" {
		return ""
	}
	if _, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), s); err == nil {
		return s
	}
	encoded, _, err := transform.String(encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()), s)
	if err != nil {
		return s
	}
	decoded, _, err := transform.String(japanese.ShiftJIS.NewDecoder(), encoded)
	if err != nil {
		return s
	}
	// ReplaceUnsupported substitutes the SUB byte; present it as '?'.
	return strings.ReplaceAll(decoded, "\x1a", "?")
}

// SanitizeCell is the form ingestion applies to every extracted cell.
func SanitizeCell(s string) string {
	return EncodeSafe(CleanText(s))
}

// DecodeShiftJIS decodes cp932 bytes into a string. The decoder never
// reports malformed input itself, it substitutes U+FFFD, so presence of
// the replacement rune is treated as a decode failure. Input that is
// already valid UTF-8 is accepted as-is in that case.
func DecodeShiftJIS(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	if err == nil {
		err = errors.New("input contains byte sequences invalid in cp932")
	}
	return "", fmt.Errorf("failed to decode cp932 data: %w", err)
}
