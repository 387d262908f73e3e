// Package textnorm canonicalizes the free-text strings the pipeline
// compares and ships: comparison keys for customer matching, header
// labels for column resolution, and cell text bound for a legacy
// encoding.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Legal-entity markers stripped from company names before comparison.
// Several forms collapse under NFKC first, so the list is a superset of
// what survives folding.
var legalSuffixRE = regexp.MustCompile(
	`(?i)(株式会社|（株）|\(株\)|㈱|有限会社|合同会社|合名会社|合資会社|Co\.,?\s*Ltd\.?|Corporation|Company|Inc\.?)`,
)

var (
	punctRE = regexp.MustCompile("[ \t　‐\\-–—・/／.,，、()\\[\\]{}<>『』「」”\"'’`･_＋\\\\+]+")
	digitRE = regexp.MustCompile(`[0-9０-９]+`)
)

// Normalize derives the comparison key for a name or free-text mention:
// NFKC fold, legal-suffix removal, punctuation and digit removal, ASCII
// lowercasing, katakana folded to hiragana. Pure function; blank input
// yields "". The result is only ever compared, never displayed.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	t := norm.NFKC.String(s)
	t = legalSuffixRE.ReplaceAllString(t, "")
	t = punctRE.ReplaceAllString(t, "")
	t = digitRE.ReplaceAllString(t, "")
	t = strings.ToLower(t)
	return foldKana(t)
}

// foldKana maps katakana ァ..ヴ onto hiragana codepoints.
func foldKana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヴ' {
			return r - 0x60
		}
		return r
	}, s)
}

var (
	labelAnnotationRE = regexp.MustCompile(`[（(][^）)]*[）)]`)
	labelSeparatorRE  = regexp.MustCompile(`[\s　:_：・･／/、，,.\-]`)
)

// NormalizeLabel canonicalizes a column header for lookup: NFKC fold,
// parenthesized annotations and the 必須 marker removed, separators
// stripped. Two labels that differ only in annotation or width resolve
// to the same key.
func NormalizeLabel(label string) string {
	if label == "" {
		return ""
	}
	t := norm.NFKC.String(label)
	t = labelAnnotationRE.ReplaceAllString(t, "")
	t = strings.ReplaceAll(t, "必須", "")
	t = labelSeparatorRE.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// BuildLabelLookup maps each normalized header label to the first actual
// label carrying it. Blank keys are skipped; later duplicates do not
// displace the first.
func BuildLabelLookup(columns []string) map[string]string {
	lookup := make(map[string]string, len(columns))
	for _, col := range columns {
		key := NormalizeLabel(col)
		if key == "" {
			continue
		}
		if _, seen := lookup[key]; !seen {
			lookup[key] = col
		}
	}
	return lookup
}

// ResolveLabel returns the actual column label matching the first alias
// that resolves through the lookup, or "" when none do.
func ResolveLabel(lookup map[string]string, aliases []string) string {
	for _, alias := range aliases {
		key := NormalizeLabel(alias)
		if key == "" {
			continue
		}
		if col, ok := lookup[key]; ok {
			return col
		}
	}
	return ""
}
