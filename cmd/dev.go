package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/unreact/internal/config"
	"github.com/conneroisu/unreact/internal/devserver"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var devCmd = &cobra.Command{
	Use:     "dev",
	Aliases: []string{"serve", "s"},
	Short:   "Serve a dev build and reload the browser on change",
	Long: `Build the site in dev mode, serve it on localhost and rebuild whenever a
file under the templates, styles or public directory changes. Open pages
reload themselves after every rebuild.

Examples:
  unreact dev                 # http://localhost:3000
  unreact dev -p 8000         # serve on another port`,
	RunE: runDev,
}

func init() {
	rootCmd.AddCommand(devCmd)
	addServerFlags(devCmd)
}

func runDev(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	session, err := devserver.New(cfg, devserver.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("starting dev server: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner(cmd.OutOrStdout(), session.Config())
	return session.Run(ctx)
}

func printBanner(w io.Writer, cfg *config.Config) {
	name := cfg.Site.Name
	if name == "" {
		name = "unreact"
	}
	fmt.Fprintf(w, "\n  %s dev server\n\n", cases.Title(language.English).String(name))
	fmt.Fprintf(w, "  Local:     http://localhost:%d/\n", cfg.Server.Port)
	fmt.Fprintf(w, "  Reload:    ws://localhost:%d/\n", cfg.Server.WSPort)
	fmt.Fprintf(w, "  Metrics:   http://localhost:%d/metrics\n", cfg.Server.WSPort)
	fmt.Fprintf(w, "  Watching:  %v\n\n", cfg.WatchedDirs())
}
