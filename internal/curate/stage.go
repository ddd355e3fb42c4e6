package curate

import "fmt"

// Stage is a step of a curation run. Stages only move forward.
type Stage int

const (
	// Init is a run that hasn't started.
	Init Stage = iota

	// DatabaseBuild builds the nucleotide database of the assembly.
	DatabaseBuild

	// SearchInvoked searches the repeat library against that database.
	SearchInvoked

	// HitsLoaded has the search hits and the assembly in memory.
	HitsLoaded

	// PerFamily clusters and extracts the loci of each family.
	PerFamily

	// AlignmentInvoked aligns each family's loci.
	AlignmentInvoked

	// Done is a finished run.
	Done
)

var stageNames = [...]string{
	Init:             "init",
	DatabaseBuild:    "database build",
	SearchInvoked:    "search",
	HitsLoaded:       "hits loaded",
	PerFamily:        "per family",
	AlignmentInvoked: "alignment",
	Done:             "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is a fatal error and the stage it stopped the run in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("curation failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
