// Package workspace lays out a run's working directory.
//
//	<root>/
//	  data/                 staged assembly, BLAST db, tool outputs
//	    repeatmodeler/
//	    repeatmasker/
//	  intermediate/         transient text artifacts
//	    pairwise-hits/      unaligned per-family FASTA
//	    aligned/            aligner output
//	  results/
//	  pipeline_scripts/
package workspace

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("workspace")

// Layout is the directory tree of a run rooted at Root.
type Layout struct {
	Root string
}

// New returns the Layout rooted at root.
func New(root string) Layout {
	return Layout{Root: root}
}

// Data holds the staged assembly and what the tools build from it.
func (l Layout) Data() string { return filepath.Join(l.Root, "data") }

// RepeatModeler is RepeatModeler's output directory.
func (l Layout) RepeatModeler() string { return filepath.Join(l.Data(), "repeatmodeler") }

// RepeatMasker is RepeatMasker's output directory.
func (l Layout) RepeatMasker() string { return filepath.Join(l.Data(), "repeatmasker") }

// Intermediate holds transient text artifacts like the raw BLAST output.
func (l Layout) Intermediate() string { return filepath.Join(l.Root, "intermediate") }

// PairwiseHits holds the unaligned FASTA of each family.
func (l Layout) PairwiseHits() string { return filepath.Join(l.Intermediate(), "pairwise-hits") }

// Aligned holds the aligner's output for each family.
func (l Layout) Aligned() string { return filepath.Join(l.Intermediate(), "aligned") }

// Results holds the run's reports.
func (l Layout) Results() string { return filepath.Join(l.Root, "results") }

// Scripts is for pipeline scripts.
func (l Layout) Scripts() string { return filepath.Join(l.Root, "pipeline_scripts") }

// SearchOutput is the raw tabular BLAST output.
func (l Layout) SearchOutput() string { return filepath.Join(l.Intermediate(), "tempBlastOut.txt") }

// AlignerLog collects the aligner's stderr.
func (l Layout) AlignerLog() string { return filepath.Join(l.Intermediate(), "tempMafft.txt") }

// Report is the JSON summary of a curation run.
func (l Layout) Report() string { return filepath.Join(l.Results(), "curation.json") }

// LociGFF lists every extracted region as GFF.
func (l Layout) LociGFF() string { return filepath.Join(l.Results(), "loci.gff") }

// Dirs is every directory of the layout, parents first.
func (l Layout) Dirs() []string {
	return []string{
		l.Root,
		l.Data(),
		l.RepeatModeler(),
		l.RepeatMasker(),
		l.Intermediate(),
		l.PairwiseHits(),
		l.Aligned(),
		l.Results(),
		l.Scripts(),
	}
}

// Create makes the layout's directories. It's idempotent.
func (l Layout) Create() error {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// FamilyFile is the path of a family's unaligned FASTA.
func (l Layout) FamilyFile(family string) string {
	return filepath.Join(l.PairwiseHits(), SanitizeName(family)+".fa")
}

// AlignedFile is where the alignment of the family FASTA at path goes.
func (l Layout) AlignedFile(path string) string {
	return filepath.Join(l.Aligned(), filepath.Base(path))
}

// Clean removes what a previous curation left behind: family FASTA and
// text logs in pairwise-hits/ and alignments in aligned/.
func (l Layout) Clean() error {
	stale := []struct {
		dir  string
		exts []string
	}{
		{l.PairwiseHits(), []string{".fa", ".txt"}},
		{l.Aligned(), []string{".fa"}},
	}

	var removed int
	for _, s := range stale {
		entries, err := os.ReadDir(s.dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", s.dir, err)
		}

		for _, e := range entries {
			if e.IsDir() || !hasExt(e.Name(), s.exts) {
				continue
			}
			path := filepath.Join(s.dir, e.Name())
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove stale %s: %w", path, err)
			}
			removed++
		}
	}

	if removed > 0 {
		log.Infof("removed %d stale files from %s", removed, l.Intermediate())
	}
	return nil
}

// FamilyFiles lists the non-empty family FASTA files, sorted by name.
func (l Layout) FamilyFiles() ([]string, error) {
	entries, err := os.ReadDir(l.PairwiseHits())
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".fa" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		path := filepath.Join(l.PairwiseHits(), e.Name())
		if info.Size() == 0 {
			log.Warningf("skipping empty file %s", path)
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)

	return files, nil
}

// StageAssembly copies the assembly at src into data/, gunzipping it
// if it ends in .gz, and returns the staged file's base name.
func (l Layout) StageAssembly(src string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(src), ".gz")
	dst := filepath.Join(l.Data(), name)

	// already staged
	if a, b := absPath(src), absPath(dst); a == b {
		log.Infof("%s is already in %s", src, l.Data())
		return name, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open assembly: %w", err)
	}
	defer in.Close()

	var r io.Reader = in
	if strings.HasSuffix(src, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("failed to decompress %s: %w", src, err)
		}
		defer gz.Close()
		r = gz
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to stage %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	log.Infof("staged %s at %s", src, dst)
	return name, nil
}

// SanitizeName makes a family id safe for use as a file name.
func SanitizeName(id string) string {
	return nameReplacer.Replace(id)
}

var nameReplacer = strings.NewReplacer("/", "_", `\`, "_", " ", "_", "#", "_", ":", "_")

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func hasExt(name string, exts []string) bool {
	for _, ext := range exts {
		if filepath.Ext(name) == ext {
			return true
		}
	}
	return false
}
