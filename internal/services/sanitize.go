package services

// piiKeys are field names whose values never leave the system in a
// model prompt.
var piiKeys = map[string]struct{}{
	"full_name":     {},
	"first_name":    {},
	"last_name":     {},
	"address":       {},
	"email":         {},
	"phone":         {},
	"tax_id":        {},
	"dob":           {},
	"date_of_birth": {},
	"medical_info":  {},
}

const redactedPlaceholder = "[REDACTED]"

// SanitizeForPrompt returns a deep copy of the value with every PII
// field replaced by a placeholder. Maps and slices are walked
// recursively; scalar values pass through unchanged.
func SanitizeForPrompt(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			if _, ok := piiKeys[key]; ok {
				out[key] = redactedPlaceholder
				continue
			}
			out[key] = SanitizeForPrompt(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = SanitizeForPrompt(inner)
		}
		return out
	default:
		return value
	}
}
