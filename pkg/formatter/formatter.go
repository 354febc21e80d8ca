// Package formatter transforms a single form value: dates, text, numbers,
// phone numbers and calculations. Apply never panics and never returns an
// error; problems are reported through Result.
package formatter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/models"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

const (
	TypeDate        = "date"
	TypeText        = "text"
	TypeNumber      = "number"
	TypeCalculation = "calculation"
)

type Result struct {
	Status Status `json:"status"`
	Output any    `json:"output"`
	Error  string `json:"error,omitempty"`
}

// request is what an operation sees: the resolved input plus the config.
type request struct {
	value   any
	options map[string]any
	data    map[string]any
	config  models.FormatterConfig
	logger  *slog.Logger
}

type operation func(req request) (any, error)

// skipError marks a failure that leaves the value untouched without
// failing the node.
type skipError struct {
	reason string
}

func (e *skipError) Error() string {
	return e.reason
}

func skip(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

var operations = map[string]map[string]operation{
	TypeDate: {
		"format_date":         formatDate("YYYY-MM-DD"),
		"format_time":         formatDate("HH:mm"),
		"format_datetime":     formatDate("YYYY-MM-DD HH:mm:ss"),
		"timezone_conversion": convertTimezone,
		"add_date":            shiftDate(1),
		"subtract_date":       shiftDate(-1),
		"date_difference":     dateDifference,
	},
	TypeText: {
		"uppercase":       uppercase,
		"lowercase":       lowercase,
		"title_case":      titleCase,
		"trim_whitespace": trimWhitespace,
		"replace":         replaceText,
		"extract_email":   extractEmail,
		"split":           splitText,
		"word_count":      wordCount,
		"url_encode":      urlEncode,
	},
	TypeNumber: {
		"locale_format":   localeFormat,
		"currency_format": currencyFormat,
		"round_number":    roundNumber,
		"phone_format":    phoneFormat,
		"math_operation":  mathOperation,
	},
	TypeCalculation: {
		"evaluate": evaluateFormula,
	},
}

// Supported reports whether formatType/operation has an implementation.
func Supported(formatType, op string) bool {
	_, ok := operations[formatType][op]
	return ok
}

// Apply runs the configured operation over the input taken from data (or
// the custom value).
func Apply(cfg models.FormatterConfig, data map[string]any) Result {
	logger := log.WithModule("formatter").With("format_type", cfg.FormatType, "operation", cfg.Operation)

	value, found := resolveInput(cfg, data)
	if !found && cfg.FormatType != TypeCalculation {
		return Result{
			Status: StatusSkipped,
			Output: value,
			Error:  fmt.Sprintf("No input value found for field %s", cfg.InputField),
		}
	}

	op, ok := operations[cfg.FormatType][cfg.Operation]
	if !ok {
		logger.Warn("unsupported formatter operation, passing value through")
		return Result{Status: StatusCompleted, Output: value}
	}

	options := cfg.Options
	if options == nil {
		options = map[string]any{}
	}

	out, err := run(op, request{value: value, options: options, data: data, config: cfg, logger: logger})
	if err != nil {
		var skipErr *skipError
		if errors.As(err, &skipErr) || cfg.Operation == "phone_format" {
			logger.Info("formatter skipped", "reason", err)
			return Result{Status: StatusSkipped, Output: value, Error: err.Error()}
		}

		logger.Warn("formatter failed", "error", err)

		return Result{Status: StatusFailed, Output: value, Error: err.Error()}
	}

	return Result{Status: StatusCompleted, Output: out}
}

func run(op operation, req request) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatter panic: %v", r)
		}
	}()

	return op(req)
}

func resolveInput(cfg models.FormatterConfig, data map[string]any) (any, bool) {
	if cfg.UseCustomInput {
		return cfg.CustomValue, cfg.CustomValue != ""
	}

	value, ok := data[cfg.InputField]
	if !ok || value == nil {
		return nil, false
	}

	if s, isString := value.(string); isString && s == "" {
		return value, false
	}

	return value, true
}
