package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"bearer",
	"credential",
	"access",
	"refresh",
	"security_code",
	"cvv",
}

// Key patterns whose values are card numbers; only the last four digits survive.
var cardKeyPatterns = []string{
	"card_number",
	"cardnumber",
	"card",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}

		// Value shapes take priority over key names.
		if isBearer(strVal) {
			return slog.String(a.Key, "Bearer "+redactedValue)
		}
		if looksLikeJWT(strVal) {
			return slog.String(a.Key, maskValue(strVal))
		}

		keyLower := strings.ToLower(a.Key)
		if matchesAny(keyLower, cardKeyPatterns) {
			return slog.String(a.Key, MaskCard(strVal))
		}
		if matchesAny(keyLower, sensitiveKeyPatterns) {
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

func isBearer(v string) bool {
	return len(v) > 7 && strings.EqualFold(v[:7], "bearer ")
}

// looksLikeJWT reports whether v has the compact JWS shape header.payload.sig
// with a JSON header.
func looksLikeJWT(v string) bool {
	return strings.HasPrefix(v, "eyJ") && strings.Count(v, ".") == 2 && !strings.ContainsAny(v, " \t\n")
}

// maskValue partially masks a sensitive value.
// Format: first 3 chars + "..." + last 3 chars
func maskValue(value string) string {
	if len(value) <= 12 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// MaskCard keeps the last four characters of a card number.
func MaskCard(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if isBearer(value) {
		return "Bearer " + redactedValue
	}
	if looksLikeJWT(value) {
		return maskValue(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	return matchesAny(keyLower, sensitiveKeyPatterns) || matchesAny(keyLower, cardKeyPatterns)
}

// IsSensitiveValue checks if a value appears to be a credential.
func IsSensitiveValue(value string) bool {
	return isBearer(value) || looksLikeJWT(value)
}
