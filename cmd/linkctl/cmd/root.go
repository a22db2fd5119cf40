// Package cmd implements the linkctl command-line tool: an operator's
// front door to the link-graph indexing service, for running the
// operations the HTTP tool API exposes without standing up a server.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ali01/linkweave/internal/config"
)

var cfgFile string

// NewRootCommand creates the root command for linkctl.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkctl",
		Short: "Operate a link-graph indexing vault from the command line",
		Long: `linkctl drives the same operations the tool API exposes — reindexing a
vault's backlinks, inspecting a document's links, and moving documents —
without running the HTTP server.`,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config.yaml (default: ./config.yaml)")

	cmd.AddCommand(newReindexCommand())
	cmd.AddCommand(newGetLinksCommand())
	cmd.AddCommand(newMoveCommand())
	cmd.AddCommand(newWatchCommand())

	return cmd
}

// loadConfig resolves the config file path via viper (honoring --config,
// the LINKCTL_CONFIG environment variable, and a ./config.yaml default)
// and parses it with config.LoadFromYAML.
func loadConfig() (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKCTL")
	v.AutomaticEnv()
	v.BindEnv("config")

	path := cfgFile
	if path == "" {
		path = v.GetString("config")
	}
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return config.LoadFromYAML(path)
}
