package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
)

var moduleNameStyle = lipgloss.NewStyle().Bold(true)

type moduleInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Waits       bool   `json:"waits,omitempty"`
}

func newModulesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the available modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []moduleInfo
			for _, typ := range plugin.RegisteredTypes() {
				p, err := plugin.GetPlugin(typ)
				if err != nil {
					return err
				}
				meta := p.PluginMetadata()
				infos = append(infos, moduleInfo{Name: typ, Version: meta.Version, Description: meta.Description, Waits: meta.Waits})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(infos)
			}

			width := 0
			for _, info := range infos {
				width = max(width, len(info.Name))
			}
			for _, info := range infos {
				name := moduleNameStyle.Width(width).Render(info.Name)
				fmt.Fprintf(out, "%s  %s\n", name, info.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the module list as JSON")
	return cmd
}
