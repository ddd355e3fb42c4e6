package cmd

import (
	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/spf13/cobra"
)

// maskCmd represents the mask command
var maskCmd = &cobra.Command{
	Use:   "mask <assembly>",
	Short: "Mask an assembly with the repeat library of an earlier run",
	Long: `Mask an assembly with the repeat library of an earlier run

Same as "rep run --rma-only": the assembly is staged and RepeatMasker is
run with the consensi.fa.classified found under <dir>. Thread count is
threads.masker in the config.`,
	Args: cobra.ExactArgs(1),
	RunE: maskExec,
}

func init() {
	RootCmd.AddCommand(maskCmd)
}

func maskExec(cmd *cobra.Command, args []string) error {
	c, l, err := settings()
	if err != nil {
		return err
	}
	if err := exec.Check(c.Tools.RepeatMasker); err != nil {
		return err
	}

	genome, err := stage(l, args[0])
	if err != nil {
		return err
	}
	return annotator(c, l).Mask(cmd.Context(), genome, c.Threads.Masker)
}
