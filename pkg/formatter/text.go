package formatter

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// uppercase and the other case and whitespace operations leave non-string
// values untouched.
func uppercase(req request) (any, error) {
	s, ok := req.value.(string)
	if !ok {
		return req.value, nil
	}

	return strings.ToUpper(s), nil
}

func lowercase(req request) (any, error) {
	s, ok := req.value.(string)
	if !ok {
		return req.value, nil
	}

	return strings.ToLower(s), nil
}

func titleCase(req request) (any, error) {
	s, ok := req.value.(string)
	if !ok {
		return req.value, nil
	}

	tag := language.English

	if locale := optString(req.options, "locale"); locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			req.logger.Warn("unknown locale for title case, using English", "locale", locale)
		} else {
			tag = parsed
		}
	}

	return cases.Title(tag).String(s), nil
}

func trimWhitespace(req request) (any, error) {
	s, ok := req.value.(string)
	if !ok {
		return req.value, nil
	}

	return strings.Join(strings.Fields(s), " "), nil
}

func replaceText(req request) (any, error) {
	search := optString(req.options, "searchValue", "search", "find")
	if search == "" {
		req.logger.Warn("replace has no search value, keeping original")
		return req.value, nil
	}

	replacement := ""
	if v, ok := req.options["replaceValue"]; ok {
		replacement = text(v)
	} else if v, ok := req.options["replace"]; ok {
		replacement = text(v)
	}

	pattern := regexp.QuoteMeta(search)
	if !optBool(req.options, "caseSensitive", true) {
		pattern = "(?i)" + pattern
	}

	return regexp.MustCompile(pattern).ReplaceAllLiteralString(text(req.value), replacement), nil
}

func extractEmail(req request) (any, error) {
	match := emailPattern.FindString(text(req.value))
	if match == "" {
		req.logger.Warn("no email address found, keeping original")
		return req.value, nil
	}

	return match, nil
}

func splitText(req request) (any, error) {
	delimiter := optString(req.options, "delimiter", "separator")
	if delimiter == "" {
		delimiter = ","
	}

	raw := strings.Split(text(req.value), delimiter)
	if len(raw) < 2 {
		return req.value, nil
	}

	parts := make([]string, len(raw))
	for i, p := range raw {
		parts[i] = strings.TrimSpace(p)
	}

	part := optString(req.options, "part", "index", "position")

	switch part {
	case "", "first":
		return parts[0], nil
	case "second":
		return parts[1], nil
	case "last":
		return parts[len(parts)-1], nil
	case "second_from_last":
		return parts[len(parts)-2], nil
	case "all":
		return strings.Join(parts, ","), nil
	}

	i, err := strconv.Atoi(part)
	if err != nil || i < 0 || i >= len(parts) {
		return nil, fmt.Errorf("split part %q is out of range for %d parts", part, len(parts))
	}

	return parts[i], nil
}

func wordCount(req request) (any, error) {
	return len(strings.Fields(text(req.value))), nil
}

// urlEncode escapes spaces as %20 rather than +.
func urlEncode(req request) (any, error) {
	return strings.ReplaceAll(url.QueryEscape(text(req.value)), "+", "%20"), nil
}
