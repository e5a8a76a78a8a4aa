package installtemplateplugin

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
)

// templateFile is the YAML document describing a personal installation template.
type templateFile struct {
	TemplateName                 string      `yaml:"templateName" validate:"required"`
	BaseTemplateName             string      `yaml:"baseTemplateName" validate:"required"`
	DefaultLanguage              string      `yaml:"defaultLanguage" validate:"required"`
	CustomHostname               string      `yaml:"customHostname,omitempty"`
	PostInstallationScriptLink   string      `yaml:"postInstallationScriptLink,omitempty" validate:"omitempty,url"`
	PostInstallationScriptReturn string      `yaml:"postInstallationScriptReturn,omitempty"`
	SSHKeyName                   string      `yaml:"sshKeyName,omitempty"`
	UseDistributionKernel        bool        `yaml:"useDistributionKernel,omitempty"`
	PartitionScheme              string      `yaml:"partitionScheme" validate:"required"`
	PartitionSchemePriority      int         `yaml:"partitionSchemePriority,omitempty"`
	IsHardwareRaid               bool        `yaml:"isHardwareRaid,omitempty"`
	RaidMode                     string      `yaml:"raidMode,omitempty" validate:"required_if=IsHardwareRaid true"`
	Partitions                   []partition `yaml:"partition" validate:"dive"`
}

type partition struct {
	Filesystem string `yaml:"filesystem" json:"filesystem" validate:"required"`
	Mountpoint string `yaml:"mountpoint" json:"mountpoint" validate:"required"`
	Raid       *int   `yaml:"raid,omitempty" json:"raid,omitempty"`
	Size       int    `yaml:"size" json:"size" validate:"min=0"`
	Step       int    `yaml:"step" json:"step" validate:"min=1"`
	Type       string `yaml:"type" json:"type" validate:"required,oneof=primary logical lv"`
	VolumeName string `yaml:"volumeName,omitempty" json:"volumeName"`
}

func loadTemplate(path string) (*templateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read installation template: %w", err)
	}

	var tpl templateFile
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse installation template %s: %w", path, err)
	}
	if err := config.ValidateStruct(&tpl); err != nil {
		return nil, fmt.Errorf("installation template %s: %w", path, err)
	}
	return &tpl, nil
}

// raidDisks arranges the disks of the single hardware RAID controller for
// mode. raid1 mirrors the first two disks. raid10 and raid60 split the disks
// in two bracketed groups. Other modes use every disk.
func raidDisks(mode string, names []string) ([]string, error) {
	switch mode {
	case "raid1":
		if len(names) < 2 {
			return nil, fmt.Errorf("raid1 needs 2 disks, controller has %d", len(names))
		}
		return []string{names[0], names[1]}, nil
	case "raid10", "raid60":
		half := len(names) / 2
		return []string{
			"[" + strings.Join(names[:half], ",") + "]",
			"[" + strings.Join(names[half:], ",") + "]",
		}, nil
	default:
		return names, nil
	}
}
