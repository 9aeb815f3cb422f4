// Package ui implements the interactive download view using bubbletea's Elm architecture.
//
// [DownloadModel] moves through three views:
//  1. [ResolvingView] : spinner while the blob cache is checked and playback URLs resolved
//  2. [TransferView] : progress bar with the most recent transfer lines
//  3. [ResultView] : per-song outcomes in a browsable list
//
// The download itself runs in a goroutine started from Init. Progress updates
// arrive on a channel and are turned into [Msg] values one at a time, so the
// model never blocks the download.
//
// Colors come from a small lipgloss palette that the CLI also uses for plain output.
package ui
