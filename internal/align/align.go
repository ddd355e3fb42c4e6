// Package align runs the multiple sequence aligner over family FASTA files.
package align

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ARU-life-sciences/rep/internal/exec"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("align")

// Aligner is MAFFT with the settings used for repeat families: global
// pair alignment with generalized affine gaps, iterated refinement and
// automatic strand correction.
type Aligner struct {
	// Mafft is the mafft executable
	Mafft string

	// Runner runs mafft
	Runner exec.Runner

	// Threads passed to mafft, at least one
	Threads int

	// Log collects mafft's stderr across every family
	Log string
}

// Args is mafft's argument list for aligning in.
func (a *Aligner) Args(in string) []string {
	threads := a.Threads
	if threads < 1 {
		threads = 1
	}

	return []string{
		"--ep", "0.0",
		"--genafpair",
		"--maxiterate", "1000",
		"--thread", strconv.Itoa(threads),
		"--adjustdirection",
		in,
	}
}

// Align aligns the FASTA at in and writes the alignment to out.
func (a *Aligner) Align(ctx context.Context, in, out string) error {
	o, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create alignment file: %w", err)
	}
	defer o.Close()

	cmd := exec.Command{Name: a.Mafft, Args: a.Args(in), Stdout: o}

	if a.Log != "" {
		l, err := os.OpenFile(a.Log, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open aligner log: %w", err)
		}
		defer l.Close()
		cmd.Stderr = l
	}

	log.Debugf("aligning %s", in)
	if err := a.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to align %s: %w", in, err)
	}

	return o.Close()
}
