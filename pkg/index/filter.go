package index

import (
	"strings"
)

// Range bounds a numeric field. A nil bound is unbounded on that side.
type Range struct {
	Min *float64
	Max *float64
}

// Filter selects documents by their denormalized Fields projection: tag
// membership, numeric ranges, and a free-text substring match against a
// "text" field. All conditions are ANDed together; a tag filter's
// allowed values are ORed against either a scalar or list-valued field.
type Filter struct {
	Tags   map[string][]string
	Ranges map[string]Range
	Text   string
}

// Matches reports whether fields satisfies every condition in f. An
// empty Filter matches everything.
func (f Filter) Matches(fields map[string]any) bool {
	for field, allowed := range f.Tags {
		if !matchesTag(fields[field], allowed) {
			return false
		}
	}
	for field, r := range f.Ranges {
		if !matchesRange(fields[field], r) {
			return false
		}
	}
	if f.Text != "" {
		text, _ := fields["text"].(string)
		if !strings.Contains(strings.ToLower(text), strings.ToLower(f.Text)) {
			return false
		}
	}
	return true
}

func matchesTag(value any, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	switch v := value.(type) {
	case string:
		return containsString(allowed, v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && containsString(allowed, s) {
				return true
			}
		}
		return false
	case []string:
		for _, s := range v {
			if containsString(allowed, s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func matchesRange(value any, r Range) bool {
	n, ok := toFloat64(value)
	if !ok {
		return false
	}
	if r.Min != nil && n < *r.Min {
		return false
	}
	if r.Max != nil && n > *r.Max {
		return false
	}
	return true
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
