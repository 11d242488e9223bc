package pipeline

import "fmt"

// State is a step of a pipeline run.
type State int

const (
	Normalizing State = iota
	Segmenting
	Playing
	Merging
	Publishing
	CleaningUp
	Done
	Failed
)

var stateNames = [...]string{
	Normalizing: "normalizing",
	Segmenting:  "segmenting",
	Playing:     "playing",
	Merging:     "merging",
	Publishing:  "publishing",
	CleaningUp:  "cleaning up",
	Done:        "done",
	Failed:      "failed",
}

// String returns the state name.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Mode selects what happens to the segments.
type Mode string

const (
	ModePlay  Mode = "play"
	ModeMerge Mode = "merge"
)
