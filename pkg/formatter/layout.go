package formatter

import "strings"

// momentTokens maps display-format tokens to Go layout elements. Longer
// tokens come first so "YYYY" wins over "YY".
var momentTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"DD", "02"},
	{"D", "2"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"SS", "00"},
	{"S", "0"},
	{"A", "PM"},
	{"a", "pm"},
	{"ZZ", "-0700"},
	{"Z", "-07:00"},
}

// goLayout translates a pattern such as "MM/DD/YYYY hh:mm A" into a Go
// time layout. Text inside [brackets] is kept literally.
func goLayout(pattern string) string {
	var b strings.Builder

	for i := 0; i < len(pattern); {
		if pattern[i] == '[' {
			end := strings.IndexByte(pattern[i:], ']')
			if end > 0 {
				b.WriteString(pattern[i+1 : i+end])
				i += end + 1

				continue
			}
		}

		matched := false

		for _, t := range momentTokens {
			if strings.HasPrefix(pattern[i:], t.token) {
				b.WriteString(t.layout)
				i += len(t.token)
				matched = true

				break
			}
		}

		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}

	return b.String()
}
