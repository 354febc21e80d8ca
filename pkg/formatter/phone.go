package formatter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

var phoneFormats = map[string]phonenumbers.PhoneNumberFormat{
	"E.164":         phonenumbers.E164,
	"E164":          phonenumbers.E164,
	"International": phonenumbers.INTERNATIONAL,
	"National":      phonenumbers.NATIONAL,
}

// phoneFormat formats a phone number, converts between a region and its
// calling code, or re-validates a number against another country.
// Failures skip the node value instead of failing it.
func phoneFormat(req request) (any, error) {
	value := strings.TrimSpace(text(req.value))
	region := phoneRegion(req)

	switch optString(req.options, "inputType", "mode") {
	case "country_code":
		return convertCountryCode(value)
	case "combined":
		return formatPhone(req, value, region, optString(req.options, "targetCountry", "targetCountryCode"))
	case "", "phone_number":
		if isBareCountryCode(value) {
			return convertCountryCode(value)
		}

		return formatPhone(req, value, region, optString(req.options, "targetCountry", "targetCountryCode"))
	default:
		return nil, skip("unknown phone input type %q", optString(req.options, "inputType", "mode"))
	}
}

// phoneRegion prefers a companion "<field>_countryCode" value in the form
// data, then the configured country, then US.
func phoneRegion(req request) string {
	candidates := []any{
		req.data[req.config.InputField+"_countryCode"],
		req.data[req.config.InputField+"CountryCode"],
		req.options["countryCode"],
		req.options["country"],
	}

	for _, c := range candidates {
		if region := toRegion(text(c)); region != "" {
			return region
		}
	}

	return defaultRegion
}

// toRegion accepts "GB", "+44" or "44".
func toRegion(v string) string {
	v = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "+"))
	if v == "" {
		return ""
	}

	if code, err := strconv.Atoi(v); err == nil {
		region := phonenumbers.GetRegionCodeForCountryCode(code)
		if region == "ZZ" {
			return ""
		}

		return region
	}

	region := strings.ToUpper(v)
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return ""
	}

	return region
}

func isBareCountryCode(v string) bool {
	trimmed := strings.TrimPrefix(v, "+")
	if trimmed == "" || len(trimmed) > 3 {
		return false
	}

	for _, r := range trimmed {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// convertCountryCode maps a region to "+<calling code>" and a calling code
// back to its main region.
func convertCountryCode(v string) (any, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(v), "+")

	if code, err := strconv.Atoi(trimmed); err == nil {
		region := phonenumbers.GetRegionCodeForCountryCode(code)
		if region == "ZZ" {
			return nil, skip("unknown calling code %q", v)
		}

		return region, nil
	}

	code := phonenumbers.GetCountryCodeForRegion(strings.ToUpper(trimmed))
	if code == 0 {
		return nil, skip("unknown country %q", v)
	}

	return "+" + strconv.Itoa(code), nil
}

func formatPhone(req request, value, region, target string) (any, error) {
	num, err := phonenumbers.Parse(value, region)
	if err != nil {
		return nil, skip("could not parse phone number %q: %v", value, err)
	}

	if !phonenumbers.IsPossibleNumber(num) {
		return nil, skip("%q is not a possible phone number for %s", value, region)
	}

	if target != "" {
		targetRegion := toRegion(target)
		if targetRegion == "" {
			return nil, skip("unknown target country %q", target)
		}

		if int(num.GetCountryCode()) != phonenumbers.GetCountryCodeForRegion(targetRegion) {
			return nil, skip("%q is not a number for %s", value, targetRegion)
		}
	}

	switch format := optString(req.options, "format", "outputFormat"); format {
	case "", "E.164", "E164", "International", "National":
		if format == "" {
			format = "E.164"
		}

		return phonenumbers.Format(num, phoneFormats[format]), nil
	case "No Country Code":
		return phonenumbers.GetNationalSignificantNumber(num), nil
	case "Clean National":
		return digitsOnly(phonenumbers.Format(num, phonenumbers.NATIONAL)), nil
	default:
		return nil, skip("unknown phone format %q", format)
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}

		return -1
	}, s)
}
