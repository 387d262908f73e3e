package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"crmbridge/internal/textnorm"
)

// bodyMarker separates export boilerplate from the operator-written
// note; only text after its first occurrence is kept.
const bodyMarker = "■活動内容"

// unknownBody is substituted when extraction leaves nothing. The quotes
// are part of the value the import format expects for blank notes.
const unknownBody = `"内容不明"`

// leadingPunct is stripped character by character from the head of the
// joined body.
const leadingPunct = "、。,.・:：;；!！?？\"'「」『』【】[]()（）"

// headingPattern compiles the administrative-heading matcher: a ■
// bullet followed by one of the known headings and an optional trailing
// colon, with nothing else on the line.
func headingPattern(headings []string) *regexp.Regexp {
	quoted := make([]string, len(headings))
	for i, h := range headings {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return regexp.MustCompile(`^\s*■\s*(?:` + strings.Join(quoted, "|") + `)\s*[:：]?\s*$`)
}

// ExtractBody pulls the note body out of a raw activity-content cell:
// line endings normalized, text before the body marker discarded,
// administrative heading lines and blank lines dropped, leading
// punctuation stripped, and the result sanitized for the output
// encoding. An empty result becomes the unknown-content placeholder.
func (s *Service) ExtractBody(rawText string) string {
	t := textnorm.CleanText(rawText)

	if _, after, found := strings.Cut(t, bodyMarker); found {
		t = strings.TrimSpace(after)
	}

	var kept []string
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || s.headingRE.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	body := strings.TrimSpace(strings.Join(kept, "\n"))
	for body != "" {
		r, size := utf8.DecodeRuneInString(body)
		if !strings.ContainsRune(leadingPunct, r) {
			break
		}
		body = strings.TrimSpace(body[size:])
	}

	body = textnorm.EncodeSafe(body)
	if body == "" {
		body = unknownBody
	}
	return body
}
