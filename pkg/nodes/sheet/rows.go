package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// cellValue renders a form value as spreadsheet cell text.
func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if item != nil {
				parts = append(parts, cellValue(item))
			}
		}

		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}

// toRecord keys a row by the header. Cells past the row's end read as "".
func toRecord(header, row []string) map[string]any {
	record := make(map[string]any, len(header))

	for i, column := range header {
		if column == "" {
			continue
		}

		value := ""
		if i < len(row) {
			value = row[i]
		}

		record[column] = value
	}

	return record
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// ensureColumns appends the missing columns to header and reports which were added.
func ensureColumns(header, columns []string) ([]string, []string) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var added []string

	for _, c := range columns {
		if c == "" || present[c] {
			continue
		}

		header = append(header, c)
		present[c] = true
		added = append(added, c)
	}

	return header, added
}
