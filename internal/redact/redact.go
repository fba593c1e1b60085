// Package redact provides utilities for redacting sensitive information from
// strings before they are logged. This helps prevent the accidental leakage of
// credentials, connection strings, storage keys, and bearer tokens that might
// be embedded in error messages.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// Precompiled regex patterns
var (
	// Database connection strings
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|mysql|db|database|connection)://[^@]+@`)

	// Credentials and tokens
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	// JWT token pattern - matches the standard three-part base64url-encoded format
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Signed upload tokens are opaque base64url blobs with an hmac suffix
	uploadTokenRegex = regexp.MustCompile(`\bupload/[A-Za-z0-9_-]{24,}\b`)

	// File paths
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// SQL fragments
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)(?:[\s\w,*()='"]+)?`,
	)

	patterns = []*regexp.Regexp{
		dbConnRegex, apiKeyRegex, jwtTokenRegex, uploadTokenRegex, unixPathRegex, sqlRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:      RedactedCredentialPlaceholder,
		apiKeyRegex:      RedactedKeyPlaceholder,
		jwtTokenRegex:    "[REDACTED_JWT]",
		uploadTokenRegex: "[REDACTED_UPLOAD_TOKEN]",
		unixPathRegex:    RedactedPathPlaceholder,
		sqlRegex:         "[REDACTED_SQL]",
	}
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
