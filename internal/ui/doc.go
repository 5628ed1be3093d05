// Package ui provides the Bubble Tea terminal interface for tagger.
//
// # Architecture Overview
//
// The model never polls containers. Three bind.Binding values subscribe to
// the root store with selectors covering the project list, the open project
// and the selected image. Each delivery arrives as a bind.UpdateMsg, is
// decoded into tagging snapshot types and re-arms its Listen command.
//
// Blocking container operations (loads, saves, suggestion streams) run as
// tea.Cmds. Their results reach the view through the bindings; the returned
// opDoneMsg only carries focus changes and errors that never touch
// container state, such as selecting an image the project does not list.
//
// # Package Structure
//
//   - model.go: Model, Options, Init/Update/View and Run
//   - commands.go: tea.Cmds wrapping container operations
//   - input_handlers.go: keyboard handling and cursor movement
//   - layout.go: header, panes, footer and the warnings overlay
//   - keys.go, help.go: key bindings and the help overlay
//   - theme.go: color palettes and Lipgloss styles
//
// # Layout
//
// Projects, images and tags are shown side by side. The tags pane lists
// applied tags followed by pending suggestions; enter accepts a suggestion.
// The footer shows the caption file text, uncategorized tags and a retry
// hint when a container is in an error state.
package ui
