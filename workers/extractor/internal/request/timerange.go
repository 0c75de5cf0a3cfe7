package request

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/settings"
)

// LastRun is the date_from value that anchors a custom range at the previous
// successful sync.
const LastRun = "last run"

var predefinedPeriods = map[string]struct{}{
	"Today":                       {},
	"Yesterday":                   {},
	"LastSevenDays":               {},
	"ThisWeek":                    {},
	"LastWeek":                    {},
	"Last14Days":                  {},
	"Last30Days":                  {},
	"LastFourWeeks":               {},
	"ThisMonth":                   {},
	"LastMonth":                   {},
	"LastThreeMonths":             {},
	"LastSixMonths":               {},
	"ThisYear":                    {},
	"LastYear":                    {},
	"ThisWeekStartingMonday":      {},
	"LastWeekStartingMonday":      {},
	"LastFourWeeksStartingMonday": {},
}

// PredefinedPeriods lists the accepted period keywords, sorted.
func PredefinedPeriods() []string {
	out := make([]string, 0, len(predefinedPeriods))
	for p := range predefinedPeriods {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ResolveTime turns the configured time range into a TimeSpec. Custom bounds
// are absolute dates (2006-01-02) or relative expressions such as
// "7 days ago", evaluated against now.
func ResolveTime(tr settings.TimeRange, zone string, lastSync *time.Time, now time.Time) (domain.TimeSpec, error) {
	period := strings.TrimSpace(tr.Period)
	if period == "" {
		return domain.TimeSpec{}, domain.ConfigError("time_range.period", "time period is required")
	}

	if _, ok := predefinedPeriods[period]; ok {
		return domain.TimeSpec{PredefinedTime: period, TimeZone: zone}, nil
	}
	if period != domain.CustomTimeRange {
		return domain.TimeSpec{}, domain.ConfigError("time_range.period",
			"unknown time period %q; use %s or one of %s", period, domain.CustomTimeRange,
			strings.Join(PredefinedPeriods(), ", "))
	}

	from, err := parseFrom(tr.DateFrom, lastSync, now)
	if err != nil {
		return domain.TimeSpec{}, err
	}
	to, err := parseDate("date_to", tr.DateTo, now)
	if err != nil {
		return domain.TimeSpec{}, err
	}
	if from.After(to) {
		return domain.TimeSpec{}, domain.ConfigError("date_from", "date_from %s is after date_to %s",
			from.Format(dateLayout), to.Format(dateLayout))
	}

	return domain.TimeSpec{From: &from, To: &to, TimeZone: zone}, nil
}

const dateLayout = "2006-01-02"

// numericDate matches values made only of digits and dashes. They must parse
// strictly: the fuzzy parser would swap or clamp their fields.
var numericDate = regexp.MustCompile(`^[0-9-]+$`)

func parseFrom(value string, lastSync *time.Time, now time.Time) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(value), LastRun) {
		if lastSync == nil {
			return time.Time{}, domain.ConfigError("date_from",
				"%q needs the time of a previous successful run, but none is recorded", LastRun)
		}
		return truncateToDate(*lastSync), nil
	}
	return parseDate("date_from", value, now)
}

func parseDate(field, value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.ConfigError(field, "required for %s", domain.CustomTimeRange)
	}

	t, err := time.Parse(dateLayout, value)
	if err == nil {
		return t, nil
	}
	if numericDate.MatchString(value) {
		return time.Time{}, domain.ConfigError(field, "%q is not a valid %s date", value, dateLayout)
	}

	dt, err := dateparser.Parse(&dateparser.Configuration{CurrentTime: now}, value)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, domain.ConfigError(field, "cannot parse %q as a date", value)
	}
	return truncateToDate(dt.Time), nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
