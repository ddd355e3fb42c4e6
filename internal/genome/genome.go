// Package genome holds the assembly that BLAST hits are resolved against.
package genome

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	logging "github.com/op/go-logging"
	"github.com/pbnjay/memory"
)

var log = logging.MustGetLogger("genome")

// ErrInvalidFasta is a FASTA file the reader rejected.
var ErrInvalidFasta = errors.New("invalid FASTA")

// Lookup resolves a sequence id to its residues. ok is false when the
// id isn't part of the assembly.
//
// The in-memory Genome is one implementation; an indexed, on-disk one
// for assemblies too large for memory can stand in for it.
type Lookup interface {
	Sequence(id string) (seq []byte, ok bool)
}

// Genome is an assembly held in memory, id to raw residues. It's
// immutable once loaded and safe for concurrent reads.
type Genome struct {
	seqs map[string][]byte
	ids  []string
}

// Load reads the FASTA file at path. Gzipped files (.gz) are
// decompressed on the fly.
func Load(path string) (*Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		checkMemory(path, info.Size())
	}

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFasta, path, err)
		}
		defer gz.Close()
		r = gz
	}

	g, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read genome %s: %w", path, err)
	}
	log.Infof("loaded %d sequences (%d bp) from %s", g.Len(), g.Size(), path)

	return g, nil
}

// Read loads every FASTA record from r. A record's id is the first
// whitespace delimited word of its header. Residues are not validated.
func Read(r io.Reader) (*Genome, error) {
	g := &Genome{seqs: map[string][]byte{}}

	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected sequence type %T", ErrInvalidFasta, sc.Seq())
		}

		// each record is a fresh clone of the template, so its letters
		// are kept as the residues rather than copied
		id := s.Name()
		residues := alphabet.LettersToBytes(s.Seq)

		if _, dup := g.seqs[id]; dup {
			log.Warningf("duplicate sequence id %s, keeping the last record", id)
		} else {
			g.ids = append(g.ids, id)
		}
		g.seqs[id] = residues
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFasta, err)
	}

	return g, nil
}

// FromMap builds a Genome from id to residues. The map is not copied.
func FromMap(seqs map[string][]byte) *Genome {
	g := &Genome{seqs: seqs}
	for id := range seqs {
		g.ids = append(g.ids, id)
	}
	return g
}

// Sequence returns the residues of id.
func (g *Genome) Sequence(id string) ([]byte, bool) {
	s, ok := g.seqs[id]
	return s, ok
}

// IDs returns the sequence ids in file order.
func (g *Genome) IDs() []string {
	return append([]string(nil), g.ids...)
}

// Len is the number of sequences.
func (g *Genome) Len() int {
	return len(g.seqs)
}

// Size is the total number of residues.
func (g *Genome) Size() int {
	var n int
	for _, s := range g.seqs {
		n += len(s)
	}
	return n
}

// gzipRatio is a rough expansion factor for gzipped FASTA.
const gzipRatio = 4

// checkMemory warns when the assembly is unlikely to fit in memory.
func checkMemory(path string, size int64) {
	if need, ok := fits(path, size, memory.TotalMemory()); !ok {
		log.Warningf("%s needs ~%d MB but the system has %d MB of memory", path, need>>20, memory.TotalMemory()>>20)
	}
}

// fits estimates the memory needed to hold the file at path, of size
// bytes, and reports whether it fits in total. An unknown total (0) fits.
func fits(path string, size int64, total uint64) (need uint64, ok bool) {
	need = uint64(size)
	if strings.HasSuffix(path, ".gz") {
		need *= gzipRatio
	}
	return need, total == 0 || need <= total
}
