// Package ui holds the terminal surface: a one-line bubbletea prompt and the lipgloss palette for CLI output.
//
// [Prompt] runs a textinput program (Elm-style Init/Update/View) used to paste the authorization redirect URL.
// Enter submits a non-empty value; esc and ctrl+c cancel with [shared.ErrCancelled].
//
// [Styles] renders titles, success, error, warning and help lines.
package ui
