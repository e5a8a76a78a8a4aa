package plugin

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	apiverPattern = regexp.MustCompile(`^\d+\.x$`)
)

// PluginMetadata describes a module.
type PluginMetadata struct {
	// Name is the step type the module is registered under.
	Name        string
	Version     string
	APIVersion  string
	Description string
	// Waits marks modules that only poll remote state. They never report changed.
	Waits bool
}

// Validate ensures metadata is well-formed.
func (m PluginMetadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("module metadata requires a non-empty Name")
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("module '%s' has invalid Version '%s' (expected format: X.Y.Z)", m.Name, m.Version)
	}
	if !apiverPattern.MatchString(m.APIVersion) {
		return fmt.Errorf("module '%s' has invalid APIVersion '%s' (expected format: N.x)", m.Name, m.APIVersion)
	}
	return nil
}
