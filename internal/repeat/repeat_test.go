package repeat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/exec/exectest"
	"github.com/ARU-life-sciences/rep/internal/workspace"
)

func newAnnotator(t *testing.T) (*Annotator, *exectest.Recorder) {
	t.Helper()

	l := workspace.New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatal(err)
	}
	rec := exectest.New()
	return &Annotator{
		Tools:  Tools{BuildDatabase: "BuildDatabase", RepeatModeler: "RepeatModeler", RepeatMasker: "RepeatMasker"},
		Runner: rec,
		Layout: l,
	}, rec
}

func TestAnnotator_Model(t *testing.T) {
	a, rec := newAnnotator(t)

	if err := a.Model(context.Background(), "fAngAng", 16); err != nil {
		t.Fatal(err)
	}

	cmds := rec.Commands()
	if len(cmds) != 2 {
		t.Fatalf("ran %d commands, want 2", len(cmds))
	}

	tests := []struct {
		cmd  exec.Command
		name string
		args []string
	}{
		{cmds[0], "BuildDatabase", []string{"-name", "fAngAng", "-dir", "."}},
		{cmds[1], "RepeatModeler", []string{"-database", "fAngAng", "-threads", "16"}},
	}
	for _, tt := range tests {
		if tt.cmd.Name != tt.name {
			t.Errorf("ran %s, want %s", tt.cmd.Name, tt.name)
		}
		if tt.cmd.Dir != a.Layout.Data() {
			t.Errorf("%s ran in %s, want %s", tt.name, tt.cmd.Dir, a.Layout.Data())
		}
		if !reflect.DeepEqual(tt.cmd.Args, tt.args) {
			t.Errorf("%s args = %v, want %v", tt.name, tt.cmd.Args, tt.args)
		}
	}
}

func TestAnnotator_Model_failure(t *testing.T) {
	a, rec := newAnnotator(t)
	rec.Fail("BuildDatabase")

	if err := a.Model(context.Background(), "db", 1); err == nil {
		t.Fatal("Model() should fail when BuildDatabase does")
	}
	if n := len(rec.Named("RepeatModeler")); n != 0 {
		t.Errorf("RepeatModeler ran %d times after BuildDatabase failed", n)
	}

	if err := a.Model(context.Background(), "", 1); err == nil {
		t.Error("Model() without a database name should fail")
	}
}

func TestAnnotator_Mask(t *testing.T) {
	a, rec := newAnnotator(t)

	// no library yet
	err := a.Mask(context.Background(), "genome.fa", 4)
	if !errors.Is(err, ErrNoLibrary) {
		t.Fatalf("Mask() error = %v, want %v", err, ErrNoLibrary)
	}
	if len(rec.Commands()) != 0 {
		t.Fatal("RepeatMasker ran without a library")
	}

	dir := filepath.Join(a.Layout.Data(), "RM_1234.MonJan11")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(dir, Consensi)
	if err := os.WriteFile(lib, []byte(">rnd-1_family-1#LINE/L1\nACGT\n"), 0644); err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(lib)

	if err := a.Mask(context.Background(), "genome.fa", 0); err != nil {
		t.Fatal(err)
	}

	cmds := rec.Named("RepeatMasker")
	if len(cmds) != 1 {
		t.Fatalf("RepeatMasker ran %d times, want 1", len(cmds))
	}
	want := []string{"-pa", "1", "-lib", abs, "-gff", "-a", "-excln", "-xsmall", "-dir", a.Layout.RepeatMasker(), "genome.fa"}
	if !reflect.DeepEqual(cmds[0].Args, want) {
		t.Errorf("RepeatMasker args = %v, want %v", cmds[0].Args, want)
	}
}

func TestFindConsensi(t *testing.T) {
	root := t.TempDir()
	if _, err := FindConsensi(root); !errors.Is(err, ErrNoLibrary) {
		t.Errorf("FindConsensi() error = %v, want %v", err, ErrNoLibrary)
	}

	nested := filepath.Join(root, "a", "b")
	os.MkdirAll(nested, 0755)
	os.WriteFile(filepath.Join(nested, Consensi), nil, 0644)

	got, err := FindConsensi(root)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != Consensi || !filepath.IsAbs(got) {
		t.Errorf("FindConsensi() = %s", got)
	}
}
