// Package reconcile holds the routines every module shares to compare
// observed and desired state and to converge them.
package reconcile

import "fmt"

// State is the desired lifecycle of a resource.
type State string

const (
	Present  State = "present"
	Absent   State = "absent"
	Modified State = "modified"
)

// ParseState returns def for an empty value and rejects unknown states.
// allowed restricts the accepted values; none means present and absent.
func ParseState(value string, def State, allowed ...State) (State, error) {
	if value == "" {
		return def, nil
	}
	if len(allowed) == 0 {
		allowed = []State{Present, Absent}
	}
	for _, s := range allowed {
		if State(value) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("state %q is not one of %v", value, allowed)
}

// MissingForModifyError is returned when state modified targets a resource that does not exist.
type MissingForModifyError struct {
	Resource string
}

func (e *MissingForModifyError) Error() string {
	return fmt.Sprintf("%s does not exist and cannot be modified", e.Resource)
}

// AmbiguousError reports several observed resources sharing a natural key
// expected to be unique.
type AmbiguousError struct {
	Key   string
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%d resources match %s, refusing to guess which one to change", e.Count, e.Key)
}

// RequireUnique fails with AmbiguousError when more than one match exists.
func RequireUnique[T any](key string, matches []T) error {
	if len(matches) > 1 {
		return &AmbiguousError{Key: key, Count: len(matches)}
	}
	return nil
}
