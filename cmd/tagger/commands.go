package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/five82/tagger/internal/app"
	"github.com/five82/tagger/internal/config"
	"github.com/five82/tagger/internal/diag"
	"github.com/five82/tagger/internal/tagging"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		prefsPath  string
		apiURL     string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:           "tagger",
		Short:         "Terminal client for tagging image datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			markGoFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Options{
				ConfigPath: configPath,
				PrefsPath:  prefsPath,
				APIURL:     apiURL,
			}
			if debug {
				opts.Verbosity = 2
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/tagger/config.toml)")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/tagger/prefs.toml)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "tagging API base URL, overrides api_url")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose logging (glog -v=2)")
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cmd.AddCommand(newPathsCmd(), newLogsCmd(&configPath))
	return cmd
}

// markGoFlags replays glog flags given on the command line into the Go flag
// set so diag.Setup treats them as explicit.
func markGoFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if flag.Lookup(f.Name) != nil {
			_ = flag.Set(f.Name, f.Value.String())
		}
	})
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List the state paths views can subscribe to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range tagging.Schema.Paths() {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}

func newLogsCmd(configPath *string) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the tagger log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tail, err := diag.Tail(cfg.LogPath(), lines)
			if err != nil {
				return err
			}
			if level != "" {
				floor, err := diag.ParseSeverity(level)
				if err != nil {
					return err
				}
				tail = diag.Filter(tail, floor)
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "minimum severity: info, warning, error")
	return cmd
}
