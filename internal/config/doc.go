// Package config loads the tagger client configuration.
//
// # Configuration Discovery
//
// Load resolves the file in this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tagger/config.toml
//  3. If the file doesn't exist, use defaults
//  4. If a field is missing or blank, use its default
//
// # Default Values
//
//   - API endpoint: 127.0.0.1:8000
//   - Log directory: ~/.local/state/tagger
//   - Poll interval: 30 seconds
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:8000"
//	log_dir = "~/.local/state/tagger"
//	poll_seconds = 30
//
// api_url may be a bare host:port. poll_seconds = 0 disables background
// refresh of the project list; negative values are rejected. Tilde
// expansion applies to the config path and log_dir.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors, and invalid values. A missing file is
// not an error.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//	client, err := api.NewClient(cfg.APIURL)
package config
