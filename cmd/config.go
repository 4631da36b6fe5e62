// cmd/config.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aceteam-ai/gatewatch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after merging the config file, environment
variables and flags. The token is redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		if cfg.Source != "" {
			labelColor.Printf("# from %s\n", cfg.Source)
		} else {
			labelColor.Println("# no config file; defaults and environment only")
		}
		fmt.Print(out)
		return nil
	},
}

func renderConfig(cfg *config.Config) (string, error) {
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(out), nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
