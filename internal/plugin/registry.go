package plugin

import (
	"fmt"
	"sort"
	"sync"

	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Plugin)
)

// RegisterPlugin adds a module implementation for the provided step type.
func RegisterPlugin(stepType string, p Plugin) error {
	if p == nil {
		return ovherrors.NewPluginError(stepType, fmt.Errorf("module is nil"))
	}
	if err := p.PluginMetadata().Validate(); err != nil {
		return ovherrors.NewPluginError(stepType, err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[stepType]; exists {
		return ovherrors.NewPluginError(stepType, fmt.Errorf("module already registered"))
	}

	registry[stepType] = p
	return nil
}

// MustRegister registers p and panics on failure. Modules call it from init.
func MustRegister(stepType string, p Plugin) {
	if err := RegisterPlugin(stepType, p); err != nil {
		panic(err)
	}
}

// GetPlugin retrieves a module by step type.
func GetPlugin(stepType string) (Plugin, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[stepType]
	if !ok {
		return nil, ovherrors.NewPluginError(stepType, fmt.Errorf("no module registered"))
	}

	return p, nil
}

// RegisteredTypes returns every registered step type in sorted order.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ResetRegistry clears registrations (for tests).
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Plugin)
}
