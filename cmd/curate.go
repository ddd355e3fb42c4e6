package cmd

import (
	"path/filepath"

	"github.com/ARU-life-sciences/rep/internal/curate"
	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/repeat"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// curateCmd represents the curate command
var curateCmd = &cobra.Command{
	Use:   "curate <assembly>",
	Short: "Build a FASTA of flanked loci for each repeat family and align it",
	Long: `Build a FASTA of flanked loci for each repeat family and align it

The repeat library (by default the consensi.fa.classified RepeatModeler
left under <dir>) is searched against the assembly with blastn. For each
family, the best hits (--top-hits, by e-value) choose the sequences to
look at; all of the family's hits on each of those are clustered into
loci (hits less than --max-hit-distance apart are fused) and each locus
is oriented by a majority vote of its hits' strands.

Every locus is cut out with --flank bases either side, reverse
complemented when on the minus strand, and appended to
<dir>/intermediate/pairwise-hits/<family>.fa. Each family file is then
aligned with MAFFT into <dir>/intermediate/aligned.

A JSON report and a GFF of the extracted regions are written to
<dir>/results.`,
	Args: cobra.ExactArgs(1),
	RunE: curateExec,
}

func init() {
	RootCmd.AddCommand(curateCmd)

	flags := curateCmd.Flags()
	flags.StringP("library", "l", "", "repeat library FASTA (default is consensi.fa.classified under --dir)")
	flags.Int("flank", 2000, "bases added either side of each locus")
	flags.Int("max-hit-distance", 10000, "hits closer than this on a sequence are one locus")
	flags.Float64("min-fraction", 0.8, "loci with less strand agreement are logged as ambiguous")
	flags.Int("top-hits", 20, "hits kept per family, by e-value")
	flags.String("evalue", "10e-10", "blastn expect value threshold")
	flags.Int("workers", 0, "families curated at once (default is the number of cores)")
	flags.String("align-failure", "abort", `when a family fails to align, "abort" or "skip" it`)
	flags.String("ties", "plus", `orientation of loci with a tied strand vote, "plus" or "exclude"`)
	flags.Int("search-threads", 0, "blastn threads (default is the number of cores)")
	flags.Int("align-threads", 0, "mafft threads (default is the number of cores)")

	viper.BindPFlag("library", flags.Lookup("library"))
	for _, key := range []string{"flank", "max-hit-distance", "min-fraction", "top-hits", "evalue", "align-failure", "ties"} {
		viper.BindPFlag("curation."+key, flags.Lookup(key))
	}
}

// curateExec stages the assembly and runs the curation pipeline.
func curateExec(cmd *cobra.Command, args []string) error {
	// zero means the config's own value, the number of cores by default
	overrides := map[string]string{
		"workers":        "curation.workers",
		"search-threads": "threads.search",
		"align-threads":  "threads.aligner",
	}
	for flag, key := range overrides {
		if cmd.Flags().Changed(flag) {
			n, _ := cmd.Flags().GetInt(flag)
			viper.Set(key, n)
		}
	}

	c, l, err := settings()
	if err != nil {
		return err
	}
	if err := exec.Check(c.Tools.Makeblastdb, c.Tools.Blastn, c.Tools.Mafft); err != nil {
		return err
	}

	library := viper.GetString("library")
	if library == "" {
		if library, err = repeat.FindConsensi(l.Root); err != nil {
			return err
		}
	}
	if library, err = filepath.Abs(library); err != nil {
		return err
	}

	genome, err := stage(l, args[0])
	if err != nil {
		return err
	}

	p := curate.New(c, l, runner(c))
	report, err := p.Run(cmd.Context(), filepath.Join(l.Data(), genome), library)
	if err != nil {
		return err
	}

	log.Noticef("run %s: %d loci in %d families, %d aligned", report.RunID, report.Loci(), len(report.Families), report.Aligned)
	return nil
}
