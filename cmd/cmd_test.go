package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ARU-life-sciences/rep/config"
	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/fatih/color"
	"github.com/spf13/viper"
)

func Test_makeDocs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	if err := makeDocs(dir); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"rep.md", "rep_run.md", "rep_mask.md", "rep_curate.md", "rep_check.md"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if !strings.HasPrefix(string(content), "---\nlayout: default\n") {
			t.Errorf("%s is missing its front matter", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "rep_docs.md")); err == nil {
		t.Error("hidden docs command was documented")
	}
}

func Test_filePrepender(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"root", "docs/rep.md", "permalink: /"},
		{"child", "docs/rep_curate.md", "parent: rep"},
		{"unknown", "docs/other.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filePrepender(tt.filename)
			if tt.want == "" && got != "" || !strings.Contains(got, tt.want) {
				t.Errorf("filePrepender(%s) = %q, want it to contain %q", tt.filename, got, tt.want)
			}
		})
	}

	if got := linkHandler("rep.md"); got != "/" {
		t.Errorf("linkHandler(rep.md) = %s", got)
	}
	if got := linkHandler("rep_run.md"); got != "rep_run" {
		t.Errorf("linkHandler(rep_run.md) = %s", got)
	}
}

func Test_curateFlags(t *testing.T) {
	flags := curateCmd.Flags()
	flags.Set("top-hits", "5")
	flags.Set("ties", "exclude")
	flags.Set("flank", "100")

	c, err := config.Load(viper.GetViper())
	if err != nil {
		t.Fatal(err)
	}
	if c.Curation.TopHits != 5 || c.Curation.Flank != 100 || !c.ExcludeTies() {
		t.Errorf("flags didn't reach the config: %+v", c.Curation)
	}
}

func Test_runExec_needsDatabase(t *testing.T) {
	viper.Set("dir", t.TempDir())
	viper.Set("database", "")
	viper.Set("rma-only", false)

	err := runExec(runCmd, []string{"genome.fa"})
	if err == nil || !strings.Contains(err.Error(), "--database") {
		t.Errorf("runExec() error = %v, want a missing database error", err)
	}
}

func Test_writeLocations(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	writeLocations(&out, []exec.Location{
		{Name: "blastn", Path: "/usr/bin/blastn"},
		{Name: "mafft"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out.String())
	}
	if f := strings.Fields(lines[1]); len(f) != 3 || f[1] != "found" || f[2] != "/usr/bin/blastn" {
		t.Errorf("blastn row = %q", lines[1])
	}
	if f := strings.Fields(lines[2]); len(f) != 3 || f[1] != "missing" {
		t.Errorf("mafft row = %q", lines[2])
	}
}
