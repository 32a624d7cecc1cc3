package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/prismic"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "A blog served from Prismic content",
	Long: `spacetraveling renders a blog whose posts live in Prismic. It serves the
pages over HTTP, regenerating them every revalidation window, or exports the
whole site as static files.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the spacetraveling version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("spacetraveling %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(versionCmd, serveCmd, exportCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSource reads the configuration and builds the Prismic client.
func loadSource() (spacetraveling.SiteConfig, *prismic.Client, error) {
	cfg, err := spacetraveling.LoadConfig(configPath)
	if err != nil {
		return spacetraveling.SiteConfig{}, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.PrismicEndpoint == "" {
		return spacetraveling.SiteConfig{}, nil, fmt.Errorf("PRISMIC_ENDPOINT is required")
	}
	client, err := prismic.New(cfg.PrismicEndpoint, cfg.PrismicAccessToken)
	if err != nil {
		return spacetraveling.SiteConfig{}, nil, err
	}
	return cfg, client, nil
}
