// Package curate turns a repeat library and an assembly into per-family
// FASTA files of flanked, oriented loci and aligns each family.
//
// A run goes through the stages Init, DatabaseBuild, SearchInvoked,
// HitsLoaded, PerFamily, AlignmentInvoked and Done. The first fatal error
// stops the run and is returned as a *StageError.
package curate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ARU-life-sciences/rep/config"
	"github.com/ARU-life-sciences/rep/internal/align"
	"github.com/ARU-life-sciences/rep/internal/blast"
	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/extract"
	"github.com/ARU-life-sciences/rep/internal/genome"
	"github.com/ARU-life-sciences/rep/internal/locus"
	"github.com/ARU-life-sciences/rep/internal/workspace"
	"github.com/google/uuid"
	logging "github.com/op/go-logging"
	"golang.org/x/sync/errgroup"
)

var log = logging.MustGetLogger("curate")

// Options tune the per-family pass and the aligner failure policy.
type Options struct {
	// Flank is added either side of each locus
	Flank uint64

	// Cluster are the clustering parameters
	Cluster locus.Params

	// TopHits is the number of best hits kept per family
	TopHits int

	// Workers is the number of families curated at once
	Workers int

	// ExcludeTies drops loci with an evenly split strand vote
	ExcludeTies bool

	// SkipFailedAlignments carries on when one family fails to align
	SkipFailedAlignments bool
}

// DefaultOptions are the settings curation runs with out of the box.
func DefaultOptions() Options {
	return Options{
		Flank:   extract.DefaultFlank,
		Cluster: locus.DefaultParams(),
		TopHits: 20,
		Workers: 1,
	}
}

// Pipeline is one curation run.
type Pipeline struct {
	Layout  workspace.Layout
	Search  *blast.Search
	Aligner *align.Aligner
	Options Options

	mu    sync.Mutex
	stage Stage
}

// New builds a Pipeline from settings. Tools are run with r.
func New(c *config.Config, l workspace.Layout, r exec.Runner) *Pipeline {
	return &Pipeline{
		Layout: l,
		Search: &blast.Search{
			Makeblastdb: c.Tools.Makeblastdb,
			Blastn:      c.Tools.Blastn,
			Runner:      r,
			Threads:     c.Threads.Search,
			EValue:      c.Curation.EValue,
		},
		Aligner: &align.Aligner{
			Mafft:   c.Tools.Mafft,
			Runner:  r,
			Threads: c.Threads.Aligner,
			Log:     l.AlignerLog(),
		},
		Options: Options{
			Flank: uint64(c.Curation.Flank),
			Cluster: locus.Params{
				MaxHitDistance: uint64(c.Curation.MaxHitDistance),
				MinFraction:    c.Curation.MinFraction,
			},
			TopHits:              c.Curation.TopHits,
			Workers:              c.Curation.Workers,
			ExcludeTies:          c.ExcludeTies(),
			SkipFailedAlignments: c.SkipFailedAlignments(),
		},
	}
}

// Stage is the stage the run is in, or stopped in.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Pipeline) enter(s Stage) {
	p.mu.Lock()
	p.stage = s
	p.mu.Unlock()
	log.Noticef("stage: %s", s)
}

func (p *Pipeline) fail(err error) error {
	return &StageError{Stage: p.Stage(), Err: err}
}

// Run curates the families of library against the assembly at genomePath.
// The report is written to results/ and returned, along with any error.
func (p *Pipeline) Run(ctx context.Context, genomePath, library string) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Genome:  genomePath,
		Library: library,
	}
	log.Infof("curation run %s", report.RunID)

	if err := p.Layout.Create(); err != nil {
		return report, p.fail(err)
	}

	p.enter(DatabaseBuild)
	db, err := p.Search.MakeDB(ctx, genomePath)
	if err != nil {
		return report, p.fail(err)
	}

	p.enter(SearchInvoked)
	if err := p.Search.Run(ctx, db, library, p.Layout.SearchOutput()); err != nil {
		return report, p.fail(err)
	}

	p.enter(HitsLoaded)
	hits, err := blast.ParseFile(p.Layout.SearchOutput(), blast.ParseOptions{})
	if err != nil {
		return report, p.fail(err)
	}
	g, err := genome.Load(genomePath)
	if err != nil {
		return report, p.fail(err)
	}
	report.Hits = len(hits)
	log.Infof("%d hits over %d families, %d sequences in the assembly", len(hits), len(hits.Queries()), g.Len())

	if err := p.Layout.Clean(); err != nil {
		return report, p.fail(err)
	}

	p.enter(PerFamily)
	report.Families, err = p.Curate(ctx, hits, g)
	if err != nil {
		return report, p.fail(err)
	}
	if err := WriteGFF(p.Layout.LociGFF(), report.Families); err != nil {
		return report, p.fail(err)
	}

	p.enter(AlignmentInvoked)
	report.Aligned, report.AlignFailures, err = p.Align(ctx)
	if err != nil {
		return report, p.fail(err)
	}

	report.Finished = time.Now()
	if err := report.Write(p.Layout.Report()); err != nil {
		return report, p.fail(err)
	}

	p.enter(Done)
	log.Infof("curated %d loci over %d families in %s", report.Loci(), len(report.Families), report.Finished.Sub(report.Started).Round(time.Second))

	return report, nil
}

// Curate clusters, orients and extracts the loci of every family in hits
// and appends them to the family's FASTA in pairwise-hits/. Families are
// spread over Options.Workers goroutines; families that map to the same
// file are handled by one of them, in order.
func (p *Pipeline) Curate(ctx context.Context, hits blast.Table, g genome.Lookup) ([]FamilyReport, error) {
	jobs := groupByFile(hits.Queries())

	workers := p.Options.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([][]FamilyReport, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, families := range jobs {
		i, families := i, families
		eg.Go(func() error {
			for _, family := range families {
				if err := ctx.Err(); err != nil {
					return err
				}
				fr, err := p.family(hits, family, g)
				if err != nil {
					return fmt.Errorf("failed to curate %s: %w", family, err)
				}
				results[i] = append(results[i], fr)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var reports []FamilyReport
	for _, r := range results {
		reports = append(reports, r...)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Family < reports[j].Family
	})

	return reports, nil
}

// family curates the loci of one family.
func (p *Pipeline) family(hits blast.Table, family string, g genome.Lookup) (FamilyReport, error) {
	fr := FamilyReport{Family: family, File: p.Layout.FamilyFile(family)}
	ex := &extract.Extractor{Genome: g, Flank: p.Options.Flank}

	fam := hits.FilterQuery(family)
	fam.SortByEValue()
	best := fam.Top(p.Options.TopHits).UniquePairs()

	for _, pair := range best {
		onSubject := fam.FilterPair(family, pair.Subject)
		onSubject.SortByPosition()
		fr.Subjects++

		for _, l := range locus.Cluster(onSubject, p.Options.Cluster) {
			if l.Ambiguous(p.Options.Cluster.MinFraction) {
				fr.Ambiguous++
			}
			if l.Tie() {
				fr.Ties++
				if p.Options.ExcludeTies {
					log.Warningf("dropping %s of %s, strand vote is tied", l, family)
					fr.Skipped++
					continue
				}
			}

			region, residues, err := ex.Extract(l)
			if errors.Is(err, extract.ErrMissingContig) || errors.Is(err, extract.ErrEmptyRegion) {
				log.Warningf("skipping %s of %s: %v", l, family, err)
				fr.Skipped++
				continue
			} else if err != nil {
				return fr, err
			}

			rec := extract.Record{ID: family, Region: region, Seq: residues}
			if err := extract.Append(fr.File, rec); err != nil {
				return fr, err
			}
			fr.Regions = append(fr.Regions, region)
		}
	}

	log.Debugf("%s: %d loci on %d subjects, %d skipped", family, len(fr.Regions), fr.Subjects, fr.Skipped)
	return fr, nil
}

// Align runs the aligner on every non-empty family file, writing each
// alignment to aligned/ under the same name. It returns the number of
// aligned families and, when failures are skipped, the files that failed.
func (p *Pipeline) Align(ctx context.Context) (aligned int, failed []string, err error) {
	files, err := p.Layout.FamilyFiles()
	if err != nil {
		return 0, nil, err
	}

	for _, f := range files {
		if err := p.Aligner.Align(ctx, f, p.Layout.AlignedFile(f)); err != nil {
			if !p.Options.SkipFailedAlignments || ctx.Err() != nil {
				return aligned, failed, err
			}
			log.Warningf("skipping family: %v", err)
			failed = append(failed, f)
			continue
		}
		aligned++
	}
	log.Infof("aligned %d of %d families", aligned, len(files))

	return aligned, failed, nil
}

// groupByFile batches families by the FASTA file they're written to,
// keeping the first-seen order of both files and families.
func groupByFile(families []string) [][]string {
	index := map[string]int{}
	var jobs [][]string
	for _, f := range families {
		name := workspace.SanitizeName(f)
		i, ok := index[name]
		if !ok {
			i = len(jobs)
			index[name] = i
			jobs = append(jobs, nil)
		} else {
			log.Warningf("%s shares a file name with %s", f, jobs[i][0])
		}
		jobs[i] = append(jobs[i], f)
	}
	return jobs
}
