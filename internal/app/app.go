package app

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/five82/tagger/internal/api"
	"github.com/five82/tagger/internal/config"
	"github.com/five82/tagger/internal/diag"
	"github.com/five82/tagger/internal/prefs"
	"github.com/five82/tagger/internal/tagging"
	"github.com/five82/tagger/internal/ui"
)

// Options configure the tagger application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/tagger/prefs.toml
	APIURL     string // overrides api_url from the config file
	Verbosity  int
}

// Run boots the TUI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if err := diag.Setup(cfg.LogDir, opts.Verbosity); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer glog.Flush()

	userPrefs := prefs.Load(opts.PrefsPath)

	client, err := api.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	glog.Infof("[app]tagger starting against %s", client.BaseURL())

	root := tagging.NewApp(client)
	StartPoller(ctx, root, cfg.PollInterval)

	return ui.Run(ctx, ui.Options{
		App:         root,
		ThemeName:   userPrefs.Theme,
		LastProject: userPrefs.LastProject,
		PrefsPath:   opts.PrefsPath,
		LogPath:     cfg.LogPath(),
	})
}
