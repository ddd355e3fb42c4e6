package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the external tools can be found",
	Long: `Check that the external tools can be found

Looks up makeblastdb, blastn, mafft, BuildDatabase, RepeatModeler and
RepeatMasker (or the paths set under "tools" in the config) on the PATH
and prints where each was found.`,
	Args: cobra.NoArgs,
	RunE: checkExec,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func checkExec(cmd *cobra.Command, args []string) error {
	c, _, err := settings()
	if err != nil {
		return err
	}

	t := c.Tools
	names := []string{t.Makeblastdb, t.Blastn, t.Mafft, t.BuildDatabase, t.RepeatModeler, t.RepeatMasker}
	writeLocations(cmd.OutOrStdout(), exec.Locate(names...))

	return exec.Check(names...)
}

// writeLocations prints a table of where each tool was found.
// from https://golang.org/pkg/text/tabwriter/
func writeLocations(out io.Writer, locs []exec.Location) {
	found := color.New(color.FgGreen).SprintFunc()
	missing := color.New(color.FgRed).SprintFunc()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "tool\tstatus\tpath\n")
	for _, l := range locs {
		if l.Found() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.Name, found("found"), l.Path)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.Name, missing("missing"), "-")
		}
	}
	w.Flush()
}
