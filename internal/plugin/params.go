package plugin

import (
	"github.com/alexisbeaulieu97/ovhkit/internal/config"
)

// DecodeParams decodes the step parameters into out and runs the shared
// struct validator on it. Any failure is a ValidationError for the step.
func DecodeParams(step *config.Step, out any) error {
	if err := step.DecodeConfig(out); err != nil {
		return NewValidationError(step.ID, err)
	}
	if err := config.ValidateStruct(out); err != nil {
		return NewValidationError(step.ID, err)
	}
	return nil
}
