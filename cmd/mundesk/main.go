package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/cmd/mundesk/admin"
	"github.com/mundesk/mundesk/cmd/mundesk/committee"
	"github.com/mundesk/mundesk/cmd/mundesk/serve"
	"github.com/mundesk/mundesk/cmd/mundesk/user"
	"github.com/mundesk/mundesk/pkg/config"
	logr "github.com/mundesk/mundesk/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	rootCmd = &cobra.Command{
		Use:          "mundesk",
		Short:        "Conference desk for Model United Nations",
		Long:         "mundesk serves the delegate, chair, and admin dashboards of a Model United Nations conference.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(
		serve.Command,
		admin.Command,
		user.Command,
		committee.Command,
		hashPasswordCmd,
	)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	if cfg.Exist() {
		if err := cfg.Parse(); err != nil {
			fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
			return 1
		}
	} else if err := cfg.ParseEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "parse environment: %v\n", err)
		return 1
	}

	ctx = config.WithContext(ctx, cfg)
	logger, f, err := logr.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		return 1
	}
	if f != nil {
		defer f.Close() // nolint: errcheck
	}

	log.SetDefault(logger)

	// Set the max number of processes to the number of CPUs
	// This is useful when running in a container
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warn("couldn't set automaxprocs", "error", err)
	}

	ctx = log.WithContext(ctx, logger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}

	return 0
}
