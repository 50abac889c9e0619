package logging

import "strings"

const redacted = "[REDACTED]"

// redact replaces the values of sensitive keys in a key–value list.
// The input slice is not modified.
func redact(kv []any) []any {
	if len(kv) < 2 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if isSensitiveKey(key) {
			out[i+1] = redacted
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, s := range []string{"password", "token", "secret", "cookie", "email", "confirmation"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
