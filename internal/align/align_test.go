package align

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/exec/exectest"
)

func TestAligner_Args(t *testing.T) {
	tests := []struct {
		name    string
		threads int
		want    []string
	}{
		{"threads", 8, []string{"--ep", "0.0", "--genafpair", "--maxiterate", "1000", "--thread", "8", "--adjustdirection", "fam.fa"}},
		{"at least one thread", 0, []string{"--ep", "0.0", "--genafpair", "--maxiterate", "1000", "--thread", "1", "--adjustdirection", "fam.fa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Aligner{Mafft: "mafft", Threads: tt.threads}
			if got := a.Args("fam.fa"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAligner_Align(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "fam.fa")
	out := filepath.Join(dir, "fam.aln.fa")
	logFile := filepath.Join(dir, "tempMafft.txt")

	rec := exectest.New()
	rec.Handle("mafft", func(c exec.Command) error {
		fmt.Fprint(c.Stdout, ">fam\nAC-GT\n")
		fmt.Fprint(c.Stderr, "progress\n")
		return nil
	})

	a := &Aligner{Mafft: "mafft", Runner: rec, Threads: 2, Log: logFile}

	// twice, the log is appended to
	for i := 0; i < 2; i++ {
		if err := a.Align(context.Background(), in, out); err != nil {
			t.Fatal(err)
		}
	}

	if got, _ := os.ReadFile(out); string(got) != ">fam\nAC-GT\n" {
		t.Errorf("alignment = %q", got)
	}
	if got, _ := os.ReadFile(logFile); string(got) != "progress\nprogress\n" {
		t.Errorf("log = %q", got)
	}
}

func TestAligner_Align_failure(t *testing.T) {
	dir := t.TempDir()

	rec := exectest.New()
	rec.Fail("mafft")
	a := &Aligner{Mafft: "mafft", Runner: rec}

	err := a.Align(context.Background(), filepath.Join(dir, "fam.fa"), filepath.Join(dir, "out.fa"))
	var toolErr *exec.ToolError
	if !errors.As(err, &toolErr) {
		t.Errorf("Align() error = %v, want a ToolError", err)
	}
}
