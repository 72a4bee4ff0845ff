package logger

import (
	"strings"
)

// sensitiveParams are query parameter names that must never reach the
// request log. Presigned document URLs carry signatures, and inquiry
// endpoints accept contact details.
var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"signature",
	"api_key",
	"apikey",
	"auth",
	"email",
	"phone",
}

// SanitizedEmail masks an address for logging: "a***@e***.com".
func SanitizedEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "[invalid-email]"
	}

	local := email[:at]
	domain := email[at+1:]

	if len(local) > 1 {
		local = local[:1] + strings.Repeat("*", len(local)-1)
	}

	labels := strings.Split(domain, ".")
	if len(labels) > 1 {
		// Keep only the TLD readable.
		for i := 0; i < len(labels)-1; i++ {
			labels[i] = strings.Repeat("*", len(labels[i]))
		}
		domain = strings.Join(labels, ".")
	}

	return local + "@" + domain
}

// SanitizeQueryString reports whether a raw query string mentions any
// sensitive parameter and should be logged as redacted wholesale.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
