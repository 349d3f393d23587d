package client

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// maxUnwrapDepth bounds how many layers of nested JSON encoding
// UnwrapTranslation will peel before giving up.
const maxUnwrapDepth = 3

// UnwrapTranslation extracts the translated text from whatever the
// translation backend sent this week.
//
// Observed encodings: a plain string; a JSON object under one of the keys
// "translation", "message", or "content"; a JSON-encoded string containing
// any of the above; all of it optionally wrapped in a markdown code fence.
// This is a best-effort adapter, not a contract: input that matches none
// of the shapes is logged and returned as-is rather than rejected.
func UnwrapTranslation(raw string) string {
	value := strings.TrimSpace(raw)

	for depth := 0; depth < maxUnwrapDepth; depth++ {
		value = stripCodeFence(value)

		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(value), &obj); err == nil {
			inner, ok := translationField(obj)
			if !ok {
				slog.Debug("translation object has no known text field", "payload", value)
				return value
			}
			value = strings.TrimSpace(inner)
			continue
		}

		// A double-encoded payload decodes to a string; unwrap and loop
		// in case the inner value is itself JSON.
		var str string
		if err := json.Unmarshal([]byte(value), &str); err == nil {
			value = strings.TrimSpace(str)
			continue
		}

		return value
	}

	slog.Debug("translation payload still nested after max unwraps", "payload", value)
	return value
}

// translationField picks the text field out of a decoded translation
// object, in order of how often each key has been observed.
func translationField(obj map[string]json.RawMessage) (string, bool) {
	for _, key := range []string{"translation", "message", "content"} {
		rawField, ok := obj[key]
		if !ok {
			continue
		}
		var str string
		if err := json.Unmarshal(rawField, &str); err == nil {
			return str, true
		}
		// Non-string field (e.g. a nested object): hand back its raw JSON
		// for the next unwrap round.
		return string(rawField), true
	}
	return "", false
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without a language tag, e.g. ```json ... ```.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	trimmed := strings.TrimPrefix(s, "```")
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		// Drop the language tag line ("json", "text", or empty).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
