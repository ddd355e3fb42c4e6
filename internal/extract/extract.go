// Package extract cuts flanked loci out of the genome and appends them
// to per-family FASTA files.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ARU-life-sciences/rep/internal/genome"
	"github.com/ARU-life-sciences/rep/internal/locus"
	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
)

// DefaultFlank is the number of bases added either side of a locus.
const DefaultFlank = 2000

// LineWidth is the residue line width of written FASTA.
const LineWidth = 60

var (
	// ErrMissingContig is a locus on a sequence the genome doesn't have.
	ErrMissingContig = errors.New("sequence not found in genome")

	// ErrEmptyRegion is a locus that's empty once clamped to its sequence.
	ErrEmptyRegion = errors.New("empty region")
)

// Region is the stretch of a sequence extracted for a locus: the locus
// plus its flanks, clamped to the sequence.
type Region struct {
	Subject string

	// Start and Stop are 1-based, inclusive
	Start uint64
	Stop  uint64

	Strand seq.Strand
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", r.Subject, r.Start, r.Stop, locus.Symbol(r.Strand))
}

// Len is the number of bases in the region.
func (r Region) Len() uint64 {
	return r.Stop - r.Start + 1
}

// Bounds is the flanked extent of l on a sequence of length bases:
// [max(1, start-flank), min(length, stop+flank)]. ok is false when the
// flanked start is past the end of the sequence, leaving nothing.
func Bounds(l locus.Locus, flank, length uint64) (start, stop uint64, ok bool) {
	if l.Start < 1 || l.Stop < l.Start {
		return 0, 0, false
	}

	start = 1
	if l.Start > flank {
		start = l.Start - flank
	}

	stop = length
	if length >= flank && l.Stop <= length-flank {
		stop = l.Stop + flank
	}

	if start > length || start > stop {
		return 0, 0, false
	}
	return start, stop, true
}

// Extractor cuts loci out of a genome.
type Extractor struct {
	Genome genome.Lookup

	// Flank is added to both sides of each locus
	Flank uint64
}

// Extract returns the flanked region of l and its residues, reverse
// complemented for minus strand loci.
func (e *Extractor) Extract(l locus.Locus) (Region, []byte, error) {
	s, ok := e.Genome.Sequence(l.Subject)
	if !ok {
		return Region{}, nil, fmt.Errorf("%w: %s", ErrMissingContig, l.Subject)
	}

	start, stop, ok := Bounds(l, e.Flank, uint64(len(s)))
	if !ok {
		return Region{}, nil, fmt.Errorf("%w: %s on a sequence of %d bp", ErrEmptyRegion, l, len(s))
	}

	r := Region{Subject: l.Subject, Start: start, Stop: stop, Strand: l.Strand}

	// 1-based inclusive to 0-based half open
	residues := s[start-1 : stop]
	if l.Strand == seq.Minus {
		return r, RevComp(residues), nil
	}
	return r, append([]byte(nil), residues...), nil
}

// Record is one FASTA entry of a family file.
type Record struct {
	// ID is the FASTA id, the family name
	ID string

	// Region the residues came from, written as the description
	Region Region

	Seq []byte
}

// Append writes rec to the FASTA file at path, creating it if needed.
func Append(path string, rec Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := write(f, rec); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s to %s: %w", rec.ID, path, err)
	}
	return f.Close()
}

// write formats rec as FASTA onto w. The fasta.Writer writes residue by
// residue, so w is buffered.
func write(w io.Writer, rec Record) error {
	letters := make([]alphabet.Letter, len(rec.Seq))
	for i, b := range rec.Seq {
		letters[i] = alphabet.Letter(b)
	}
	s := linear.NewSeq(rec.ID, letters, alphabet.DNAredundant)
	s.Desc = rec.Region.String()

	buf := bufio.NewWriter(w)
	if _, err := fasta.NewWriter(buf, LineWidth).Write(s); err != nil {
		return err
	}
	return buf.Flush()
}
