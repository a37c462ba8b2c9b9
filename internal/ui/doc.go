// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the plan:
//  1. [TaskListView] : Browse tasks, recurring ones marked with a repeat glyph
//  2. [InstanceListView] : Step through a task's scheduled instances
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Instance status changes (done, skip) are applied through the [DataSource] and
// reflected in the list without leaving the view.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d/s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
