package reconcile

import (
	"reflect"
	"sort"

	"github.com/alexisbeaulieu97/ovhkit/pkg/diff"
)

// FieldDiff returns the desired fields whose value differs from the observed
// one. Fields absent from desired are left untouched.
func FieldDiff(observed, desired map[string]any) map[string]any {
	changed := make(map[string]any)
	for key, want := range desired {
		if have, ok := observed[key]; ok && equalValues(have, want) {
			continue
		}
		changed[key] = want
	}
	return changed
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetDiff returns desired values not yet observed (create) and observed
// values not desired (remove). remove is empty when appendOnly is set.
// Both keep the order of their source slice and contain no duplicates.
func SetDiff(observed, desired []string, appendOnly bool) (create, remove []string) {
	have := make(map[string]struct{}, len(observed))
	for _, v := range observed {
		have[v] = struct{}{}
	}
	want := make(map[string]struct{}, len(desired))
	for _, v := range desired {
		if _, seen := want[v]; seen {
			continue
		}
		want[v] = struct{}{}
		if _, ok := have[v]; !ok {
			create = append(create, v)
		}
	}

	if appendOnly {
		return create, nil
	}

	seen := make(map[string]struct{}, len(observed))
	for _, v := range observed {
		if _, ok := want[v]; ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		remove = append(remove, v)
	}
	return create, remove
}

// RenderDiff renders observed and desired as YAML and returns their unified
// diff, or an empty string when rendering fails.
func RenderDiff(observed, desired any) string {
	out, err := diff.YAMLDiff(observed, desired)
	if err != nil {
		return ""
	}
	return out
}

// equalValues compares JSON-decoded values with typed desired values, so
// float64(3600) equals int(3600).
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
