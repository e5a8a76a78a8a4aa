package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	stepIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	moduleTypeSet = func() map[string]struct{} {
		set := make(map[string]struct{}, len(ModuleTypes))
		for _, t := range ModuleTypes {
			set[t] = struct{}{}
		}
		return set
	}()
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("step_id", func(fl validator.FieldLevel) bool {
			return stepIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("module_type", func(fl validator.FieldLevel) bool {
			_, ok := moduleTypeSet[fl.Field().String()]
			return ok
		})

		// ip_or_cidr accepts a single address or a block such as 1.2.3.0/24.
		_ = v.RegisterValidation("ip_or_cidr", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			if net.ParseIP(value) != nil {
				return true
			}
			_, _, err := net.ParseCIDR(value)
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the playbook.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return ovherrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if err := validateCredentials(cfg.Settings.Credentials); err != nil {
		return err
	}

	stepIndex := make(map[string]int, len(cfg.Steps))
	for i, step := range cfg.Steps {
		if _, exists := stepIndex[step.ID]; exists {
			return ovherrors.NewValidationError(fieldForStep(i, "id"), fmt.Sprintf("duplicate step id %q", step.ID), nil)
		}
		stepIndex[step.ID] = i
	}

	for i, step := range cfg.Steps {
		for _, dep := range step.DependsOn {
			if dep == step.ID {
				return ovherrors.NewValidationError(fieldForStep(i, "depends_on"), "step cannot depend on itself", nil)
			}
			if _, ok := stepIndex[dep]; !ok {
				return ovherrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("references unknown step %q", dep), nil)
			}
		}
	}

	if cycle := detectCycle(cfg.Steps); len(cycle) > 0 {
		return ovherrors.NewValidationError("steps", fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil)
	}

	return nil
}

// ValidateStep validates the common fields of a single step.
func ValidateStep(step Step) error {
	if err := validatorInstance().Struct(step); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// ValidateStruct runs the shared validator, with the custom tags registered,
// against a module parameter struct.
func ValidateStruct(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func validateCredentials(creds Credentials) error {
	values := []string{creds.Endpoint, creds.ApplicationKey, creds.ApplicationSecret, creds.ConsumerKey}
	set := 0
	for _, v := range values {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(values) {
		return ovherrors.NewValidationError("settings.credentials",
			"endpoint, application_key, application_secret and consumer_key must be set together", nil)
	}
	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		if ve.Param() != "" {
			msg = fmt.Sprintf("%s failed validation for tag '%s=%s'", field, ve.Tag(), ve.Param())
		}
		return ovherrors.NewValidationError(field, msg, err)
	}

	return ovherrors.NewValidationError("config", err.Error(), err)
}

// yamlishFieldName drops the root struct name from the yaml-named namespace.
func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func fieldForStep(index int, field string) string {
	return fmt.Sprintf("steps[%d].%s", index, field)
}
