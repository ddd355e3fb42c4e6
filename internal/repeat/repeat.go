// Package repeat runs de novo repeat discovery (BuildDatabase and
// RepeatModeler) and genome masking (RepeatMasker) over a staged assembly.
package repeat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/workspace"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("repeat")

// Consensi is the classified consensus library RepeatModeler writes.
const Consensi = "consensi.fa.classified"

// ErrNoLibrary is returned when no classified consensus library exists
// under the working root.
var ErrNoLibrary = errors.New("no " + Consensi + " found in the working directory. Did you run RepeatModeler?")

// Tools are the executables of the RepeatModeler and RepeatMasker
// distributions.
type Tools struct {
	BuildDatabase string
	RepeatModeler string
	RepeatMasker  string
}

// Annotator runs the repeat tools within a workspace.
type Annotator struct {
	Tools  Tools
	Runner exec.Runner
	Layout workspace.Layout
}

// Model builds a RepeatModeler database named database from the staged
// assembly and runs RepeatModeler on it. Both run in data/.
func (a *Annotator) Model(ctx context.Context, database string, threads int) error {
	if database == "" {
		return errors.New("a database name is needed for BuildDatabase")
	}

	build := exec.Command{
		Name: a.Tools.BuildDatabase,
		Dir:  a.Layout.Data(),
		Args: []string{"-name", database, "-dir", "."},
	}
	log.Infof("building RepeatModeler database %s", database)
	if err := a.Runner.Run(ctx, build); err != nil {
		return fmt.Errorf("failed to build the RepeatModeler database: %w", err)
	}

	model := exec.Command{
		Name: a.Tools.RepeatModeler,
		Dir:  a.Layout.Data(),
		Args: []string{"-database", database, "-threads", strconv.Itoa(atLeastOne(threads))},
	}
	log.Infof("running RepeatModeler on %s", database)
	if err := a.Runner.Run(ctx, model); err != nil {
		return fmt.Errorf("failed running RepeatModeler: %w", err)
	}

	return nil
}

// Mask runs RepeatMasker over genome with the library RepeatModeler
// classified, writing to data/repeatmasker.
func (a *Annotator) Mask(ctx context.Context, genome string, threads int) error {
	lib, err := FindConsensi(a.Layout.Root)
	if err != nil {
		return err
	}
	log.Infof("masking %s with %s", genome, lib)

	cmd := exec.Command{
		Name: a.Tools.RepeatMasker,
		Dir:  a.Layout.Data(),
		Args: []string{
			"-pa", strconv.Itoa(atLeastOne(threads)),
			"-lib", lib,
			"-gff",
			"-a",
			"-excln",
			"-xsmall",
			"-dir", a.Layout.RepeatMasker(),
			genome,
		},
	}
	if err := a.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("RepeatMasker failed: %w", err)
	}

	return nil
}

// FindConsensi walks root for the classified consensus library and
// returns the absolute path of the first one found.
func FindConsensi(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable corners of the tree don't stop the search
			return nil
		}
		if !d.IsDir() && d.Name() == Consensi {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoLibrary
	}

	return filepath.Abs(found)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
