package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yunx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgDownloadComplete
)

type downloadOutcome struct {
	results []tasks.AudioResult
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// downloadCompleteMsg is the constructor for [MsgDownloadComplete]
func downloadCompleteMsg(results []tasks.AudioResult, err error) Msg {
	return Msg{kind: MsgDownloadComplete, data: downloadOutcome{results, err}}
}
