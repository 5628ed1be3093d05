// Package diag configures diagnostic logging and reads it back.
//
// # Overview
//
// The client logs through glog. Setup points glog at the configured log
// directory, where glog maintains a tagger.INFO symlink to the newest file.
// Tail reads the end of that file for `tagger logs` and the TUI status line.
//
// # Reading Log Files
//
// Tail uses a ring buffer, so memory is O(maxLines) regardless of file
// size, and lines come back in file order.
//
//	lines, err := diag.Tail(cfg.LogPath(), 200)
//	if err != nil {
//		return err
//	}
//	for _, line := range diag.Filter(lines, diag.SeverityWarning) {
//		fmt.Println(line)
//	}
//
// # Severity
//
// glog prefixes each entry with a severity letter (I, W, E, F) followed by
// the date. LineSeverity reads that letter; Filter applies a minimum
// severity and keeps multi-line entries together.
package diag
