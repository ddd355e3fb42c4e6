package cmd

import (
	"fmt"

	"github.com/ARU-life-sciences/rep/config"
	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/repeat"
	"github.com/ARU-life-sciences/rep/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <assembly>",
	Short: "Discover and mask the repeats of an assembly",
	Long: `Discover and mask the repeats of an assembly

The assembly (FASTA, optionally gzipped) is staged into <dir>/data and
the working layout is created around it. Then:

1. BuildDatabase and RepeatModeler build a classified consensus library
   of the assembly's repeat families (consensi.fa.classified)
2. RepeatMasker masks the assembly with that library, writing to
   <dir>/data/repeatmasker

With --rma-only, step 1 is skipped and a library from an earlier run is
used. Follow with "rep curate" to build per-family FASTA for alignment.`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().String("database", "", "name of the RepeatModeler database")
	runCmd.Flags().Bool("rma-only", false, "only run RepeatMasker, with the library of an earlier run")
	runCmd.Flags().Int("rmo-threads", config.Cores(), "threads for RepeatModeler")
	runCmd.Flags().Int("rma-threads", config.Cores(), "threads for RepeatMasker")

	viper.BindPFlag("database", runCmd.Flags().Lookup("database"))
	viper.BindPFlag("rma-only", runCmd.Flags().Lookup("rma-only"))
	viper.BindPFlag("threads.modeler", runCmd.Flags().Lookup("rmo-threads"))
	viper.BindPFlag("threads.masker", runCmd.Flags().Lookup("rma-threads"))
}

// runExec stages the assembly and runs the repeat tools on it.
func runExec(cmd *cobra.Command, args []string) error {
	c, l, err := settings()
	if err != nil {
		return err
	}

	rmaOnly := viper.GetBool("rma-only")
	database := viper.GetString("database")
	if !rmaOnly && database == "" {
		return fmt.Errorf("--database is needed unless running with --rma-only")
	}

	tools := []string{c.Tools.RepeatMasker}
	if !rmaOnly {
		tools = append(tools, c.Tools.BuildDatabase, c.Tools.RepeatModeler)
	}
	if err := exec.Check(tools...); err != nil {
		return err
	}

	genome, err := stage(l, args[0])
	if err != nil {
		return err
	}

	a := annotator(c, l)
	if !rmaOnly {
		if err := a.Model(cmd.Context(), database, c.Threads.Modeler); err != nil {
			return err
		}
	}
	return a.Mask(cmd.Context(), genome, c.Threads.Masker)
}

// stage creates the layout and copies the assembly into data/,
// returning the staged file's name.
func stage(l workspace.Layout, assembly string) (string, error) {
	if err := l.Create(); err != nil {
		return "", err
	}
	return l.StageAssembly(assembly)
}

func annotator(c *config.Config, l workspace.Layout) *repeat.Annotator {
	return &repeat.Annotator{
		Tools: repeat.Tools{
			BuildDatabase: c.Tools.BuildDatabase,
			RepeatModeler: c.Tools.RepeatModeler,
			RepeatMasker:  c.Tools.RepeatMasker,
		},
		Runner: runner(c),
		Layout: l,
	}
}
