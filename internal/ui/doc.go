// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the Vibra web views:
//  1. [HomeView] : Browse, search and filter tracks, with a trending section
//  2. [LoginView], [RegisterView] : Sign in or create an account (anonymous only)
//  3. [PlaylistsView] : List and create playlists
//  4. [PlaylistDetailView] : Show a playlist in track order, remove tracks, delete it
//  5. [RecommendationsView] : Personal recommendations
//
// Every view except home is wrapped in a [guard.Guard]; while the session is still loading
// the view renders [guard.Placeholder] and loads nothing.
//
// Each fetch is a tea.Cmd stamped with a [tasks.Ticket] from the view's [tasks.Scope].
// Leaving a view closes its scope, which cancels the requests and makes their completions stale;
// [Model.Update] drops stale completions, as well as any completion superseded by a newer request.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
