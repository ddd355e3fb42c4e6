package workspace

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rnd-1_family-10#LINE/L1", "rnd-1_family-10_LINE_L1"},
		{`a\b c:d`, "a_b_c_d"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLayout_Create(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "run"))

	// twice, it's idempotent
	for i := 0; i < 2; i++ {
		if err := l.Create(); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	for _, dir := range []string{"data", "data/repeatmodeler", "data/repeatmasker", "intermediate/pairwise-hits", "intermediate/aligned", "results", "pipeline_scripts"} {
		if info, err := os.Stat(filepath.Join(l.Root, dir)); err != nil || !info.IsDir() {
			t.Errorf("%s was not created", dir)
		}
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLayout_Clean(t *testing.T) {
	l := New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatal(err)
	}

	write(t, filepath.Join(l.PairwiseHits(), "old.fa"), ">x\nA\n")
	write(t, filepath.Join(l.PairwiseHits(), "old.txt"), "log")
	write(t, filepath.Join(l.PairwiseHits(), "keep.tsv"), "x")
	write(t, filepath.Join(l.Aligned(), "old.fa"), ">x\nA\n")
	write(t, l.SearchOutput(), "hits")

	if err := l.Clean(); err != nil {
		t.Fatal(err)
	}

	for _, gone := range []string{filepath.Join(l.PairwiseHits(), "old.fa"), filepath.Join(l.PairwiseHits(), "old.txt"), filepath.Join(l.Aligned(), "old.fa")} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("%s survived Clean()", gone)
		}
	}
	for _, kept := range []string{filepath.Join(l.PairwiseHits(), "keep.tsv"), l.SearchOutput()} {
		if _, err := os.Stat(kept); err != nil {
			t.Errorf("%s was removed by Clean()", kept)
		}
	}

	// nothing left to clean, and no directories at all, are both fine
	if err := l.Clean(); err != nil {
		t.Error(err)
	}
	if err := New(filepath.Join(t.TempDir(), "missing")).Clean(); err != nil {
		t.Error(err)
	}
}

func TestLayout_FamilyFiles(t *testing.T) {
	l := New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatal(err)
	}

	write(t, l.FamilyFile("fam#2"), ">fam#2\nACGT\n")
	write(t, l.FamilyFile("fam#1"), ">fam#1\nACGT\n")
	write(t, l.FamilyFile("empty"), "")
	write(t, filepath.Join(l.PairwiseHits(), "notes.txt"), "x")

	files, err := l.FamilyFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(l.PairwiseHits(), "fam_1.fa"), filepath.Join(l.PairwiseHits(), "fam_2.fa")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("FamilyFiles() = %v, want %v", files, want)
	}

	if got := l.AlignedFile(files[0]); got != filepath.Join(l.Aligned(), "fam_1.fa") {
		t.Errorf("AlignedFile() = %s", got)
	}
}

func TestLayout_StageAssembly(t *testing.T) {
	src := t.TempDir()
	l := New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatal(err)
	}

	plain := filepath.Join(src, "genome.fa")
	write(t, plain, ">chr1\nACGT\n")

	zipped := filepath.Join(src, "other.fasta.gz")
	f, err := os.Create(zipped)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	gz.Write([]byte(">chr2\nTTTT\n"))
	gz.Close()
	f.Close()

	tests := []struct {
		src      string
		wantName string
		wantBody string
	}{
		{plain, "genome.fa", ">chr1\nACGT\n"},
		{zipped, "other.fasta", ">chr2\nTTTT\n"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			name, err := l.StageAssembly(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if name != tt.wantName {
				t.Errorf("StageAssembly() = %q, want %q", name, tt.wantName)
			}
			body, err := os.ReadFile(filepath.Join(l.Data(), name))
			if err != nil {
				t.Fatal(err)
			}
			if string(body) != tt.wantBody {
				t.Errorf("staged %q, want %q", body, tt.wantBody)
			}
		})
	}

	// staging a staged file leaves it be
	name, err := l.StageAssembly(filepath.Join(l.Data(), "genome.fa"))
	if err != nil || name != "genome.fa" {
		t.Errorf("StageAssembly() of a staged file = %q, %v", name, err)
	}
	if body, _ := os.ReadFile(filepath.Join(l.Data(), "genome.fa")); string(body) != ">chr1\nACGT\n" {
		t.Errorf("restaging changed the assembly to %q", body)
	}

	if _, err := l.StageAssembly(filepath.Join(src, "missing.fa")); err == nil {
		t.Error("StageAssembly() of a missing file should fail")
	}
}
