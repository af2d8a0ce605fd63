// Package ui implements the interactive playlist picker using bubbletea's Elm architecture.
//
// [Selector] is a multi-select list over the playlists of a data export. Names passed on the
// command line start out checked, at most [MaxRows] rows are visible at once, and the list
// scrolls with the cursor. [Select] runs the picker as a bubbletea program and returns the
// checked playlists in export order.
//
// Keyboard navigation uses vim-style bindings (j/k, space, a/n, enter, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
