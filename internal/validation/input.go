package validation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits
const (
	MaxTitleLength   = 255
	MaxKeywordLength = 200
)

// ValidateTitle validates a short URL title length
func ValidateTitle(title string) error {
	if title == "" {
		return nil // optional
	}

	length := utf8.RuneCountInString(title)
	if length > MaxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d characters (got %d)", MaxTitleLength, length)
	}
	return nil
}

// ValidateKeyword checks a custom keyword against the characters YOURLS
// accepts in short URLs (letters and digits).
func ValidateKeyword(keyword string) error {
	if keyword == "" {
		return nil // optional
	}
	if len(keyword) > MaxKeywordLength {
		return fmt.Errorf("keyword exceeds maximum length of %d characters (got %d)", MaxKeywordLength, len(keyword))
	}
	for _, r := range keyword {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("invalid keyword %q: only letters and digits are allowed", keyword)
		}
	}
	return nil
}

// ValidateChoice checks that value (case-insensitive) is one of allowed and
// returns it lower-cased.
func ValidateChoice(field, value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if slices.Contains(allowed, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q: must be one of %s", field, value, strings.Join(allowed, ", "))
}

// ParsePositiveInt parses a string as a positive integer.
// Returns error if the value is not a positive integer or exceeds int32 range.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", fieldName, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", fieldName)
	}
	return int(n), nil
}
