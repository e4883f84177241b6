package cmd

import (
	"fmt"
	"time"

	"github.com/conneroisu/unreact/internal/build"
	"github.com/spf13/cobra"
)

var buildDev bool

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build the site once",
	Long: `Render every route, convert the styles and copy the public assets into
the output directory. The directory is removed and recreated on every build.

Examples:
  unreact build         # production build into ./build
  unreact build --dev   # dev build into ./.devbuild with the reload script`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildDev, "dev", false, "Build in dev mode")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	site := build.NewSite(cfg, buildDev, build.WithLogger(logger.WithComponent("build")))
	defer func() { _ = site.Close() }()
	result, err := site.Build(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Built %d files into %s (digest %s) in %v\n",
		result.Files, result.OutputDir, result.DigestHex(), result.Duration.Round(time.Millisecond))
	return nil
}
