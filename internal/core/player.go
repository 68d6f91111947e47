package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Command is a MediaRemote command code understood by the helper's send mode.
type Command int

const (
	CommandPlay     Command = 0
	CommandPause    Command = 1
	CommandToggle   Command = 2
	CommandNext     Command = 4
	CommandPrevious Command = 5
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandToggle:
		return "toggle"
	case CommandNext:
		return "next"
	case CommandPrevious:
		return "previous"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// Code returns the numeric code passed to the helper.
func (c Command) Code() string {
	return fmt.Sprintf("%d", int(c))
}

// ParseCommand converts a command name into a Command.
func ParseCommand(name string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "play":
		return CommandPlay, true
	case "pause":
		return CommandPause, true
	case "toggle", "playpause", "play-pause":
		return CommandToggle, true
	case "next":
		return CommandNext, true
	case "previous", "prev":
		return CommandPrevious, true
	}
	return 0, false
}

// Controller defines the control and observation surface of a now-playing
// source.
type Controller interface {
	// Playback control
	Play(ctx context.Context)
	Pause(ctx context.Context)
	Toggle(ctx context.Context)
	Next(ctx context.Context)
	Previous(ctx context.Context)
	Seek(ctx context.Context, position time.Duration)

	// State
	Refresh(ctx context.Context)
	Snapshot() NowPlayingState
}
