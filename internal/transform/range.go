package transform

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"crmbridge/internal/textnorm"
)

// Range is one activity's extracted date/time window, formatted the
// way the import schema expects: dates as "2006-01-02", times "15:04".
type Range struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// Absolute time defaults. The end default applies only when no time at
// all was extracted; a single extracted time collapses the window onto
// itself instead.
const (
	defaultStartTime = "10:00"
	defaultEndTime   = "11:00"
)

const (
	datePatWest  = `(?P<y>\d{4})\s*(?:[/-]|年)\s*(?P<m>\d{1,2})\s*(?:[/-]|月)\s*(?P<d>\d{1,2})(?:日)?`
	datePatMD    = `(?P<mj>\d{1,2})月(?P<dj>\d{1,2})日`
	timePatStart = `(?P<h1>\d{1,2})[:：時](?P<min1>\d{0,2})`
	timePatEnd   = `(?P<h2>\d{1,2})[:：時](?P<min2>\d{0,2})`
	rangeSep     = `[～〜~\-ー−—]`
)

var (
	dateTimeRangeRE = regexp.MustCompile(
		`(?:` + datePatWest + `|` + datePatMD + `).*?(?:` + timePatStart + `)?\s*` + rangeSep + `\s*(?:` + timePatEnd + `)`)
	dateWestRE   = regexp.MustCompile(datePatWest)
	dateMDRE     = regexp.MustCompile(datePatMD)
	timeSingleRE = regexp.MustCompile(`(?P<h>\d{1,2})[:：時](?P<min>\d{0,2})`)
)

// fallbackLayouts are the date shapes the activity date column is known
// to carry. Serial values were already converted by ingestion, so the
// ISO form comes first.
var fallbackLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"2006年1月2日",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ExtractRange derives the date/time window of an activity from its
// free text. A combined date-plus-time-range pattern is tried first;
// failing that, a standalone date and a standalone time are searched
// independently. Dates failing calendar validation are logged and
// discarded. Whatever is still missing afterwards is filled from the
// row's fallback date (or the clock when that is unusable) and the
// absolute time defaults. Month/day-only dates borrow the fallback's
// year.
func (s *Service) ExtractRange(freeText, fallbackDate string) Range {
	var startDate, endDate, startTime, endTime string

	fb, fbOK := parseFallbackDate(fallbackDate)
	t := textnorm.CleanText(freeText)

	if m := dateTimeRangeRE.FindStringSubmatchIndex(t); m != nil {
		if y := group(dateTimeRangeRE, m, t, "y"); y != "" {
			startDate = s.calendarDate(atoi(y), atoi(group(dateTimeRangeRE, m, t, "m")), atoi(group(dateTimeRangeRE, m, t, "d")))
			endDate = startDate
		} else if mj := group(dateTimeRangeRE, m, t, "mj"); mj != "" {
			startDate = s.calendarDate(s.borrowYear(fb, fbOK), atoi(mj), atoi(group(dateTimeRangeRE, m, t, "dj")))
			endDate = startDate
		}

		if h := group(dateTimeRangeRE, m, t, "h1"); h != "" {
			startTime = formatTime(h, group(dateTimeRangeRE, m, t, "min1"))
		}
		if h := group(dateTimeRangeRE, m, t, "h2"); h != "" {
			endTime = formatTime(h, group(dateTimeRangeRE, m, t, "min2"))
		}
	} else {
		if dm := dateWestRE.FindStringSubmatchIndex(t); dm != nil {
			startDate = s.calendarDate(atoi(group(dateWestRE, dm, t, "y")), atoi(group(dateWestRE, dm, t, "m")), atoi(group(dateWestRE, dm, t, "d")))
			endDate = startDate
		} else if jm := dateMDRE.FindStringSubmatchIndex(t); jm != nil {
			startDate = s.calendarDate(s.borrowYear(fb, fbOK), atoi(group(dateMDRE, jm, t, "mj")), atoi(group(dateMDRE, jm, t, "dj")))
			endDate = startDate
		}

		if tm := timeSingleRE.FindStringSubmatchIndex(t); tm != nil {
			startTime = formatTime(group(timeSingleRE, tm, t, "h"), group(timeSingleRE, tm, t, "min"))
		}
	}

	if startDate == "" {
		if fbOK {
			startDate = fb.Format("2006-01-02")
		} else {
			startDate = s.clock().Format("2006-01-02")
		}
	}
	if endDate == "" {
		endDate = startDate
	}
	if endTime == "" {
		if startTime != "" {
			endTime = startTime
		} else {
			endTime = defaultEndTime
		}
	}
	if startTime == "" {
		startTime = defaultStartTime
	}

	return Range{StartDate: startDate, StartTime: startTime, EndDate: endDate, EndTime: endTime}
}

// calendarDate formats a validated date, or returns "" after logging
// the rejection so the caller falls through to defaults.
func (s *Service) calendarDate(year, month, day int) string {
	if !isValidDate(year, month, day) {
		s.logger.Warn("invalid extracted date discarded",
			slog.Int("year", year),
			slog.Int("month", month),
			slog.Int("day", day))
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func (s *Service) borrowYear(fb time.Time, ok bool) int {
	if ok {
		return fb.Year()
	}
	return s.clock().Year()
}

// isValidDate reports whether the components name a real calendar date.
// time.Date normalizes overflow, so a round trip detects month 13 or
// day 32.
func isValidDate(year, month, day int) bool {
	if year < 1 {
		return false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && int(d.Month()) == month && d.Day() == day
}

func parseFallbackDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatTime zero-pads an extracted hour/minute pair; a missing minute
// component means the top of the hour.
func formatTime(hour, minute string) string {
	if minute == "" {
		minute = "00"
	}
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// group returns the named submatch, or "" when the group did not take
// part in the match.
func group(re *regexp.Regexp, match []int, text, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || match[2*idx] < 0 {
		return ""
	}
	return text[match[2*idx]:match[2*idx+1]]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
