// Package blast searches repeat families against an assembly and reads
// the hits blastn reports.
package blast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ARU-life-sciences/rep/internal/exec"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("blast")

// Search is a blastn search of a repeat library against a nucleotide
// database built from the assembly.
type Search struct {
	// Makeblastdb is the makeblastdb executable
	Makeblastdb string

	// Blastn is the blastn executable
	Blastn string

	// Runner runs both tools
	Runner exec.Runner

	// Threads passed to blastn, at least one
	Threads int

	// EValue is the expect value threshold, as blastn takes it
	EValue string
}

// MakeDB builds a nucleotide database from the FASTA at genome. The
// database is named after the FASTA and sits next to it.
func (s *Search) MakeDB(ctx context.Context, genome string) (db string, err error) {
	dir, name := filepath.Split(genome)

	// makeblastdb is run in the FASTA's directory so the database files
	// land next to it
	cmd := exec.Command{
		Name: s.Makeblastdb,
		Dir:  dir,
		Args: []string{
			"-in", name,
			"-out", name,
			"-dbtype", "nucl",
			"-parse_seqids",
		},
	}

	log.Infof("building BLAST database for %s", genome)
	if err := s.Runner.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("failed to build a BLAST database from %s: %w", genome, err)
	}

	return genome, nil
}

// Run searches library against db and writes tabular hits to out.
func (s *Search) Run(ctx context.Context, db, library, out string) error {
	if _, err := os.Stat(library); err != nil {
		return fmt.Errorf("failed to find the repeat library: %w", err)
	}

	threads := s.Threads
	if threads < 1 {
		threads = 1
	}

	evalue := s.EValue
	if evalue == "" {
		evalue = "10e-10"
	}

	// https://www.ncbi.nlm.nih.gov/books/NBK279684/
	cmd := exec.Command{
		Name: s.Blastn,
		Args: []string{
			"-db", db,
			"-query", library,
			"-outfmt", OutFmt,
			"-evalue", evalue,
			"-num_threads", strconv.Itoa(threads),
			"-out", out,
		},
	}

	log.Infof("searching %s against %s", library, db)
	if err := s.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed executing blastn: %w", err)
	}
	log.Infof("BLAST complete, hits in %s", out)

	return nil
}
