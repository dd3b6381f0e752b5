package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/tasks"
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
	MsgLoadsFetched MsgKind = iota
	MsgProgressUpdate
	MsgRunComplete
)

type loadsData struct {
	loads *tasks.Loads
	sheet *models.Sheet
	err   error
}

type runData struct {
	result *tasks.DailyResult
	err    error
}

// loadsFetchedMsg is the constructor for [MsgLoadsFetched]
func loadsFetchedMsg(loads *tasks.Loads, sheet *models.Sheet, err error) Msg {
	return Msg{kind: MsgLoadsFetched, data: loadsData{loads, sheet, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.DailyResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runData{result, err}}
}
