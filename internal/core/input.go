package core

import "strings"

// Action is a user intent, independent of the key or message that
// triggered it. The TUI maps keys to actions and the websocket server maps
// client commands to them.
type Action int

const (
	ActionNone    Action = iota
	ActionRun            // start or resume the program
	ActionStep           // execute one step and pause
	ActionPause          // pause a running program
	ActionStop           // abandon the program
	ActionReset          // restore the world Karol started in
	ActionFaster         // next faster speed preset
	ActionSlower         // next slower speed preset
	ActionUp             // menu navigation
	ActionDown           // menu navigation
	ActionConfirm        // select in a menu
	ActionBack           // leave the current view
	ActionQuit           // exit the session
)

var actionNames = map[Action]string{
	ActionNone:    "none",
	ActionRun:     "run",
	ActionStep:    "step",
	ActionPause:   "pause",
	ActionStop:    "stop",
	ActionReset:   "reset",
	ActionFaster:  "faster",
	ActionSlower:  "slower",
	ActionUp:      "up",
	ActionDown:    "down",
	ActionConfirm: "confirm",
	ActionBack:    "back",
	ActionQuit:    "quit",
}

// String returns the action name used by ParseAction.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction returns the action with the given name, case-insensitively.
// Unknown names yield ActionNone and false.
func ParseAction(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name && a != ActionNone {
			return a, true
		}
	}
	return ActionNone, false
}
