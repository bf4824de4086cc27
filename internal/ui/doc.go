// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow for listening:
//  1. [LibraryListView] : Browse downloaded tracks
//  2. [PlayerView] : Stream the selected track with pause and seek controls
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Playback state is polled on a ticker rather than pushed, so the player screen stays correct even when the session ends on its own.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
