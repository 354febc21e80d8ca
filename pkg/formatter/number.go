package formatter

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const defaultLocale = "en-US"

// printer builds a message printer for locale with Latin digits forced.
func printer(locale string) (*message.Printer, error) {
	if locale == "" {
		locale = defaultLocale
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}

	if latn, err := tag.SetTypeForKey("nu", "latn"); err == nil {
		tag = latn
	}

	return message.NewPrinter(tag), nil
}

func fractionOptions(options map[string]any) []number.Option {
	var opts []number.Option

	if minDigits, ok := optInt(options, "minimumFractionDigits", "minDecimals"); ok {
		opts = append(opts, number.MinFractionDigits(minDigits))
	}

	if maxDigits, ok := optInt(options, "maximumFractionDigits", "maxDecimals"); ok {
		opts = append(opts, number.MaxFractionDigits(maxDigits))
	}

	return opts
}

func localeFormat(req request) (any, error) {
	v, ok := toNumber(req.value)
	if !ok {
		req.logger.Warn("value is not a number, keeping original", "value", req.value)
		return req.value, nil
	}

	p, err := printer(optString(req.options, "locale"))
	if err != nil {
		req.logger.Warn("unknown locale, keeping original", "error", err)
		return req.value, nil
	}

	return p.Sprint(number.Decimal(v, fractionOptions(req.options)...)), nil
}

func currencyFormat(req request) (any, error) {
	v, ok := toNumber(req.value)
	if !ok {
		req.logger.Warn("value is not a number, keeping original", "value", req.value)
		return req.value, nil
	}

	code := optString(req.options, "currency", "currencyCode")
	if code == "" {
		code = "USD"
	}

	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		req.logger.Warn("unknown currency, keeping original", "currency", code)
		return req.value, nil
	}

	p, err := printer(optString(req.options, "locale"))
	if err != nil {
		req.logger.Warn("unknown locale, keeping original", "error", err)
		return req.value, nil
	}

	scale, _ := currency.Standard.Rounding(unit)
	opts := append([]number.Option{number.MinFractionDigits(scale), number.MaxFractionDigits(scale)}, fractionOptions(req.options)...)

	symbol := p.Sprint(currency.Symbol(unit))
	amount := p.Sprint(number.Decimal(math.Abs(v), opts...))

	if v < 0 {
		return "-" + symbol + amount, nil
	}

	return symbol + amount, nil
}

func roundNumber(req request) (any, error) {
	v, ok := toNumber(req.value)
	if !ok {
		req.logger.Warn("value is not a number, keeping original", "value", req.value)
		return req.value, nil
	}

	decimals, _ := optInt(req.options, "decimals", "decimalPlaces", "precision")
	if decimals < 0 {
		req.logger.Warn("negative decimal places, keeping original", "decimals", decimals)
		return req.value, nil
	}

	factor := math.Pow(10, float64(decimals))

	return math.Round(v*factor) / factor, nil
}

func mathOperation(req request) (any, error) {
	a, ok := toNumber(req.value)
	if !ok {
		return nil, fmt.Errorf("%v is not a number", req.value)
	}

	var operand any
	if req.config.InputField2 != "" {
		operand = req.data[req.config.InputField2]
	}

	if operand == nil {
		for _, key := range []string{"secondValue", "operand", "value"} {
			if v, ok := req.options[key]; ok {
				operand = v
				break
			}
		}
	}

	b, ok := toNumber(operand)
	if !ok {
		return nil, fmt.Errorf("second operand %v is not a number", operand)
	}

	switch optString(req.options, "mathOperation", "operator", "operation") {
	case "add", "+":
		return a + b, nil
	case "subtract", "-":
		return a - b, nil
	case "multiply", "*":
		return a * b, nil
	case "divide", "/":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}

		return a / b, nil
	default:
		return nil, fmt.Errorf("unknown math operation %q", optString(req.options, "mathOperation", "operator", "operation"))
	}
}
