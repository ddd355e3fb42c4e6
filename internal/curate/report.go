package curate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ARU-life-sciences/rep/internal/extract"
	"github.com/biogo/biogo/feat"
	"github.com/biogo/biogo/io/featio/gff"
)

// Report summarizes a curation run.
type Report struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Genome   string    `json:"genome"`
	Library  string    `json:"library"`

	// Hits is the number of rows in the search output
	Hits int `json:"hits"`

	Families []FamilyReport `json:"families"`

	// Aligned is the number of family files aligned
	Aligned int `json:"aligned"`

	// AlignFailures are family files the aligner failed on, when skipped
	AlignFailures []string `json:"align_failures,omitempty"`
}

// FamilyReport is the outcome of curating one family.
type FamilyReport struct {
	Family string `json:"family"`

	// File is the family's FASTA
	File string `json:"file"`

	// Subjects is the number of sequences among the family's best hits
	Subjects int `json:"subjects"`

	Ambiguous int `json:"ambiguous"`
	Ties      int `json:"ties"`

	// Skipped loci were dropped before or during extraction
	Skipped int `json:"skipped"`

	// Loci is the number of regions written to File
	Loci int `json:"loci"`

	// Regions written to File, in order
	Regions []extract.Region `json:"-"`
}

// Loci is the number of loci extracted over all families.
func (r *Report) Loci() int {
	var n int
	for _, f := range r.Families {
		n += len(f.Regions)
	}
	return n
}

// Write saves the report as indented JSON at path.
func (r *Report) Write(path string) error {
	for i := range r.Families {
		r.Families[i].Loci = len(r.Families[i].Regions)
	}

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Infof("report written to %s", path)

	return nil
}

// WriteGFF writes every extracted region of families to path as a GFF
// feature named after its family.
func WriteGFF(path string, families []FamilyReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := gff.NewWriter(f, 60, true)
	feature := &gff.Feature{
		Source:         "rep",
		Feature:        "repeat_region",
		FeatFrame:      gff.NoFrame,
		FeatAttributes: gff.Attributes{{Tag: "Family"}},
	}
	for _, fam := range families {
		feature.FeatAttributes[0].Value = fam.Family
		for _, r := range fam.Regions {
			feature.SeqName = r.Subject
			feature.FeatStart = feat.OneToZero(int(r.Start))
			feature.FeatEnd = int(r.Stop)
			feature.FeatStrand = r.Strand
			if _, err := w.Write(feature); err != nil {
				f.Close()
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}
	}

	return f.Close()
}
