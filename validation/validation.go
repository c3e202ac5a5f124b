package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"newscast/errors"
)

// SupportedLanguages maps language codes to display names used in
// scripts and metadata.
var SupportedLanguages = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"ta": "Tamil",
	"te": "Telugu",
}

// ValidateURL performs basic URL validation for feed and article URLs.
func ValidateURL(rawURL string) error {
	const op = "validation.ValidateURL"

	if rawURL == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	if parsed.Host == "" {
		return errors.InvalidInput(op, nil, "URL must include a host")
	}

	return nil
}

// ValidateLanguage checks the language code and returns its display name.
func ValidateLanguage(code string) (string, error) {
	const op = "validation.ValidateLanguage"

	name, ok := SupportedLanguages[code]
	if !ok {
		return "", errors.InvalidInput(op, nil, fmt.Sprintf("Unsupported language: %s", code))
	}
	return name, nil
}

// ParseTimeOfDay parses a wall-clock "HH:MM" string into hour and minute.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	const op = "validation.ParseTimeOfDay"

	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, errors.InvalidInput(op, nil, fmt.Sprintf("Invalid time %q, expected HH:MM", value))
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.InvalidInput(op, err, fmt.Sprintf("Invalid hour in %q", value))
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.InvalidInput(op, err, fmt.Sprintf("Invalid minute in %q", value))
	}

	return hour, minute, nil
}
