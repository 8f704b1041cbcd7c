package importer

import "fmt"

type State int

const (
	Idle State = iota
	Scanning
	GroupingByDate
	Copying
	Done
	Interrupted
	Failed
)

var stateNames = map[State]string{
	Idle:           "idle",
	Scanning:       "scanning",
	GroupingByDate: "grouping by date",
	Copying:        "copying",
	Done:           "done",
	Interrupted:    "interrupted",
	Failed:         "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal states end a run.
func (s State) Terminal() bool {
	return s == Done || s == Interrupted || s == Failed
}

// transitions lists the legal successors of every non-terminal state.
// Scanning goes straight to Done in forget mode.
var transitions = map[State][]State{
	Idle:           {Scanning, Interrupted},
	Scanning:       {GroupingByDate, Done, Interrupted, Failed},
	GroupingByDate: {Copying, Interrupted},
	Copying:        {Done, Interrupted, Failed},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
