package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx in connection strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// API keys in query strings or config dumps
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|auth[_-]?token)=[A-Za-z0-9-_]{12,}`)

	// user:pass@host credentials embedded in URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// UK-style phone numbers (customer PII must not land in log output)
	phonePattern = regexp.MustCompile(`(\+44|0044|0)[\s-]?\d[\d\s-]{8,12}\d`)
)

// SanitizeConnectionString removes credentials from a connection string
// before it is logged.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	s := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizePhone masks a phone number down to its last three digits, enough
// for an operator to recognize the destination without logging the full
// number.
func SanitizePhone(phone string) string {
	if len(phone) <= 3 {
		return RedactedText
	}
	return "***" + phone[len(phone)-3:]
}

// SanitizeError scrubs error text that may carry credentials or customer
// phone numbers (messaging provider errors echo the destination back).
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
	return phonePattern.ReplaceAllString(s, RedactedText)
}
