package util

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned for anything that is not an http(s) URL with a host
var ErrInvalidURL = errors.New("invalid URL: only http(s) URLs are supported")

var (
	httpSchemePattern  = regexp.MustCompile(`(?i)^https?://`)
	otherSchemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.\-]*://`)
)

// NormalizeURL trims the input and prepends https:// when no scheme is given.
// Strings that already carry some other scheme are returned as-is so that
// validation rejects them. NormalizeURL is idempotent.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if httpSchemePattern.MatchString(raw) || otherSchemePattern.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// IsValidURL reports whether raw parses with an http or https scheme and a non-empty host
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}

// ParseTarget normalizes and validates a user-supplied URL
func ParseTarget(raw string) (string, error) {
	normalized := NormalizeURL(raw)
	if !IsValidURL(normalized) {
		return "", ErrInvalidURL
	}
	return normalized, nil
}

// Host returns the lower-cased host of rawURL, or "" if it does not parse
func Host(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
