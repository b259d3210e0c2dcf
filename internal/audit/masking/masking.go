package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a value while keeping a minimal suffix so auditors can
// still correlate records. "27AAPFU0939F1ZV" becomes "****F1ZV".
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskSensitive returns a copy of the metadata with the named string keys
// masked. Statutory identifiers (GSTIN, PAN) must never land in the audit
// trail in the clear.
func MaskSensitive(input map[string]any, keys ...string) map[string]any {
	if len(input) == 0 {
		return nil
	}

	sensitive := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		sensitive[strings.ToLower(strings.TrimSpace(key))] = struct{}{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		if _, ok := sensitive[strings.ToLower(trimmed)]; ok {
			if s, isString := value.(string); isString {
				out[trimmed] = MaskSecret(s)
				continue
			}
		}
		out[trimmed] = value
	}
	return out
}
