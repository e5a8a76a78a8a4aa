package config

import (
	"os"
	"regexp"
)

// Config represents the full ovhkit playbook.
type Config struct {
	Version     string   `yaml:"version" validate:"required,semver"`
	Name        string   `yaml:"name" validate:"required,min=1,max=100"`
	Description string   `yaml:"description,omitempty"`
	Settings    Settings `yaml:"settings,omitempty"`
	Steps       []Step   `yaml:"steps" validate:"required,min=1,dive"`

	// Dir is the directory of the playbook file, empty when read from stdin.
	Dir string `yaml:"-"`
}

// Settings holds global execution parameters.
type Settings struct {
	Parallel        int         `yaml:"parallel,omitempty" validate:"omitempty,min=1,max=32"`
	Timeout         int         `yaml:"timeout,omitempty" validate:"omitempty,min=1,max=360000"`
	ContinueOnError bool        `yaml:"continue_on_error,omitempty"`
	DryRun          bool        `yaml:"dry_run,omitempty"`
	Verbose         bool        `yaml:"verbose,omitempty"`
	Credentials     Credentials `yaml:"credentials,omitempty"`
}

// Credentials selects the API endpoint and application keys. Values may
// reference environment variables as ${NAME}. Leaving every field empty
// defers to ovh.conf and the OVH_* environment variables.
type Credentials struct {
	Endpoint          string `yaml:"endpoint,omitempty"`
	ApplicationKey    string `yaml:"application_key,omitempty"`
	ApplicationSecret string `yaml:"application_secret,omitempty"`
	ConsumerKey       string `yaml:"consumer_key,omitempty"`
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expanded returns a copy with every ${NAME} reference replaced by its environment value.
func (c Credentials) Expanded() Credentials {
	return Credentials{
		Endpoint:          expandEnvRefs(c.Endpoint),
		ApplicationKey:    expandEnvRefs(c.ApplicationKey),
		ApplicationSecret: expandEnvRefs(c.ApplicationSecret),
		ConsumerKey:       expandEnvRefs(c.ConsumerKey),
	}
}

func expandEnvRefs(value string) string {
	return envRefPattern.ReplaceAllStringFunc(value, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		return os.Getenv(name)
	})
}

// ModuleTypes lists every step type understood by the engine.
var ModuleTypes = []string{
	"dns_record",
	"dns_zone_refresh",
	"dedicated_server_boot",
	"dedicated_server_monitoring",
	"dedicated_server_display_name",
	"dedicated_server_vrack",
	"dedicated_server_install",
	"dedicated_server_task_wait",
	"dedicated_server_terminate",
	"installation_template",
	"ip_reverse",
	"ip_firewall",
	"ip_firewall_rule",
	"mailbox",
	"cloud_instance",
	"cloud_instance_wait",
	"cloud_instance_power",
	"cloud_instance_info",
	"cloud_instance_network",
	"cloud_monthly_billing",
	"cloud_volume",
	"cloud_volume_attachment",
	"cloud_volume_snapshot",
	"cloud_bucket",
	"cloud_user",
	"cloud_ssh_key",
}

// StepMap builds a lookup table for steps by ID.
func StepMap(steps []Step) map[string]Step {
	out := make(map[string]Step, len(steps))
	for _, step := range steps {
		out[step.ID] = step
	}
	return out
}
