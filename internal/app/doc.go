// Package app is the composition root of the tagger client.
//
// # Overview
//
// Run wires configuration, logging, the API client, the root state
// container, the project poller and the TUI:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/tagger/config.toml
//	       ├─────> diag.Setup()         Point glog at log_dir
//	       ├─────> prefs.Load()         Theme and last project
//	       ├─────> api.NewClient()      HTTP + event stream client
//	       ├─────> tagging.NewApp()     Root container
//	       ├─────> StartPoller()        Background project refresh
//	       └─────> ui.Run()             TUI (blocks)
//
// # Polling Behavior
//
// The poller calls App.LoadProjects every poll_seconds. A refresh that
// leaves the container in ErrorLoading counts as a failure; consecutive
// failures double the wait, capped at 30 seconds, and the first success
// resets it. Loads already in flight are not duplicated, since LoadProjects
// ignores non-refresh calls while loading.
//
// # Error Handling
//
// Run returns errors only for startup problems: an unreadable or invalid
// config, an unusable log directory, or a malformed api_url. Network
// failures after startup surface as container states in the UI.
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		glog.Exitf("tagger: %v", err)
//	}
package app
