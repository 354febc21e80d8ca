package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"
)

type dateFormat struct {
	pattern string
	layout  string
}

// inputFormats is the ordered list of accepted date inputs. Month-first
// wins over day-first when both would parse.
var inputFormats = []dateFormat{
	{"YYYY-MM-DDTHH:mm:ss.SSSZ", "2006-01-02T15:04:05.000Z07:00"},
	{"YYYY-MM-DDTHH:mm:ssZ", "2006-01-02T15:04:05Z07:00"},
	{"YYYY-MM-DDTHH:mm:ss", "2006-01-02T15:04:05"},
	{"YYYY-MM-DDTHH:mm", "2006-01-02T15:04"},
	{"YYYY-MM-DD HH:mm:ss", "2006-01-02 15:04:05"},
	{"YYYY-MM-DD HH:mm", "2006-01-02 15:04"},
	{"YYYY-MM-DD", "2006-01-02"},
	{"MM/DD/YYYY HH:mm:ss", "01/02/2006 15:04:05"},
	{"MM/DD/YYYY hh:mm A", "01/02/2006 03:04 PM"},
	{"MM/DD/YYYY HH:mm", "01/02/2006 15:04"},
	{"MM/DD/YYYY", "01/02/2006"},
	{"DD/MM/YYYY", "02/01/2006"},
	{"DD-MM-YYYY", "02-01-2006"},
	{"DD.MM.YYYY", "02.01.2006"},
	{"YYYY/MM/DD", "2006/01/02"},
	{"MMMM D, YYYY", "January 2, 2006"},
	{"MMM D, YYYY", "Jan 2, 2006"},
	{"HH:mm:ss", "15:04:05"},
	{"hh:mm A", "03:04 PM"},
	{"HH:mm", "15:04"},
}

func sourceFormatOption(options map[string]any) string {
	return optString(options, "sourceFormat", "inputFormat", "fromFormat")
}

func targetFormatOption(options map[string]any) string {
	return optString(options, "targetFormat", "outputFormat", "format", "toFormat")
}

// parseDate tries preferred first, then every accepted input format, and
// reports the format that matched.
func parseDate(value string, loc *time.Location, preferred string) (time.Time, dateFormat, bool) {
	value = strings.TrimSpace(value)

	candidates := inputFormats
	if preferred != "" {
		candidates = append([]dateFormat{{pattern: preferred, layout: goLayout(preferred)}}, inputFormats...)
	}

	for _, f := range candidates {
		if t, err := time.ParseInLocation(f.layout, value, loc); err == nil {
			return t, f, true
		}
	}

	return time.Time{}, dateFormat{}, false
}

func location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}

	return loc, nil
}

func formatDate(defaultTarget string) operation {
	return func(req request) (any, error) {
		src, err := location(optString(req.options, "sourceTimezone", "timezone"))
		if err != nil {
			return nil, err
		}

		t, _, ok := parseDate(text(req.value), src, sourceFormatOption(req.options))
		if !ok {
			req.logger.Warn("date could not be parsed, keeping original", "value", req.value)
			return req.value, nil
		}

		if name := optString(req.options, "targetTimezone"); name != "" {
			dst, err := location(name)
			if err != nil {
				return nil, err
			}

			t = t.In(dst)
		}

		target := targetFormatOption(req.options)
		if target == "" {
			target = defaultTarget
		}

		return t.Format(goLayout(target)), nil
	}
}

func convertTimezone(req request) (any, error) {
	srcName := optString(req.options, "sourceTimezone", "fromTimezone")
	dstName := optString(req.options, "targetTimezone", "toTimezone")

	if srcName == "" || dstName == "" {
		return nil, fmt.Errorf("timezone_conversion requires sourceTimezone and targetTimezone")
	}

	src, err := location(srcName)
	if err != nil {
		return nil, err
	}

	dst, err := location(dstName)
	if err != nil {
		return nil, err
	}

	t, detected, ok := parseDate(text(req.value), src, sourceFormatOption(req.options))
	if !ok {
		req.logger.Warn("date could not be parsed, keeping original", "value", req.value)
		return req.value, nil
	}

	layout := detected.layout
	if target := targetFormatOption(req.options); target != "" {
		layout = goLayout(target)
	}

	return t.In(dst).Format(layout), nil
}

func shiftDate(sign int) operation {
	return func(req request) (any, error) {
		amount, ok := optInt(req.options, "amount", "value")
		if !ok {
			return nil, fmt.Errorf("%s requires an amount", req.config.Operation)
		}

		unit := optString(req.options, "unit")
		if unit == "" {
			return nil, fmt.Errorf("%s requires a unit", req.config.Operation)
		}

		t, detected, ok := parseDate(text(req.value), time.UTC, sourceFormatOption(req.options))
		if !ok {
			req.logger.Warn("date could not be parsed, keeping original", "value", req.value)
			return req.value, nil
		}

		shifted, err := addUnit(t, unit, sign*amount)
		if err != nil {
			return nil, err
		}

		return shifted.Format(detected.layout), nil
	}
}

func addUnit(t time.Time, unit string, n int) (time.Time, error) {
	switch strings.ToLower(strings.TrimSuffix(unit, "s")) {
	case "second":
		return t.Add(time.Duration(n) * time.Second), nil
	case "minute":
		return t.Add(time.Duration(n) * time.Minute), nil
	case "hour":
		return t.Add(time.Duration(n) * time.Hour), nil
	case "day":
		return t.AddDate(0, 0, n), nil
	case "week":
		return t.AddDate(0, 0, 7*n), nil
	case "month":
		return t.AddDate(0, n, 0), nil
	case "year":
		return t.AddDate(n, 0, 0), nil
	default:
		return t, fmt.Errorf("unknown date unit %q", unit)
	}
}

func dateDifference(req request) (any, error) {
	var second any
	if req.config.InputField2 != "" {
		second = req.data[req.config.InputField2]
	}

	if second == nil || text(second) == "" {
		second = req.options["secondDate"]
	}

	if second == nil || text(second) == "" {
		return nil, fmt.Errorf("date_difference requires a second date")
	}

	preferred := sourceFormatOption(req.options)

	a, _, ok := parseDate(text(req.value), time.UTC, preferred)
	if !ok {
		return nil, fmt.Errorf("could not parse date %q", text(req.value))
	}

	b, _, ok := parseDate(text(second), time.UTC, preferred)
	if !ok {
		return nil, fmt.Errorf("could not parse date %q", text(second))
	}

	unit := optString(req.options, "unit")
	if unit == "" {
		unit = "days"
	}

	return diff(a, b, unit)
}

// diff returns the whole number of units between a and b, ignoring order.
func diff(a, b time.Time, unit string) (int, error) {
	if b.Before(a) {
		a, b = b, a
	}

	elapsed := b.Sub(a)

	switch strings.ToLower(strings.TrimSuffix(unit, "s")) {
	case "second":
		return int(elapsed / time.Second), nil
	case "minute":
		return int(elapsed / time.Minute), nil
	case "hour":
		return int(elapsed / time.Hour), nil
	case "day":
		return int(math.Floor(elapsed.Hours() / 24)), nil
	case "week":
		return int(math.Floor(elapsed.Hours() / (24 * 7))), nil
	case "month":
		return monthsBetween(a, b), nil
	case "year":
		return monthsBetween(a, b) / 12, nil
	default:
		return 0, fmt.Errorf("unknown date unit %q", unit)
	}
}

func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
	if b.Day() < a.Day() {
		months--
	}

	return months
}
