package blast

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testHits = `rnd-1_family-10#LINE/L1	scaffold_1	87.5	200	20	4	1	200	1000	1200	1.5e-45	180
rnd-1_family-10#LINE/L1	scaffold_1	91.02	151	11	2	210	360	1400	1250	3e-40	165.5
rnd-1_family-10#LINE/L1	scaffold_2	100	101	0	0	1	101	500	600	0	187
`

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(testHits), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(table) != 3 {
		t.Fatalf("Parse() returned %d hits, want 3", len(table))
	}

	want := Hit{
		Query:        "rnd-1_family-10#LINE/L1",
		Subject:      "scaffold_1",
		Identity:     91.02,
		Length:       151,
		Mismatches:   11,
		GapOpens:     2,
		QueryStart:   210,
		QueryEnd:     360,
		SubjectStart: 1400,
		SubjectEnd:   1250,
		EValue:       3e-40,
		BitScore:     165.5,
	}
	if !reflect.DeepEqual(table[1], want) {
		t.Errorf("Parse() hit = %+v, want %+v", table[1], want)
	}
	if table[1].Forward() {
		t.Error("minus strand hit parsed as forward")
	}
}

// parsing, re-serializing and parsing again gives the same values
func TestParse_roundTrip(t *testing.T) {
	first, err := Parse(strings.NewReader(testHits), ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}

	var rows []string
	for _, h := range first {
		rows = append(rows, h.String())
	}

	second, err := Parse(strings.NewReader(strings.Join(rows, "\n")), ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed the hits:\n%v\n%v", first, second)
	}
}

func TestParse_skips(t *testing.T) {
	input := "# BLASTN 2.16.0+\n# Fields: query id, subject id\n\n" + testHits + "\n\n"
	table, err := Parse(strings.NewReader(input), ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 3 {
		t.Errorf("Parse() returned %d hits, want 3", len(table))
	}

	header := strings.Join(Columns, "\t") + "\n" + testHits
	table, err = Parse(strings.NewReader(header), ParseOptions{Header: true})
	if err != nil {
		t.Fatalf("Parse() with header error = %v", err)
	}
	if len(table) != 3 {
		t.Errorf("Parse() with header returned %d hits, want 3", len(table))
	}
}

func TestParse_errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantRow int
		wantCol string
	}{
		{
			"truncated row",
			"fam\tchr1\t99.0\t100\t0\t0\t1\t100\t1\t100\t1e-5\n",
			ErrTruncatedRow,
			1,
			"",
		},
		{
			"non numeric identity",
			testHits + "fam\tchr1\tNA\t100\t0\t0\t1\t100\t1\t100\t1e-5\t50\n",
			ErrMalformedRecord,
			4,
			"pident",
		},
		{
			"negative coordinate",
			"fam\tchr1\t99\t100\t0\t0\t1\t100\t-1\t100\t1e-5\t50\n",
			ErrMalformedRecord,
			1,
			"sstart",
		},
		{
			"empty bitscore",
			"fam\tchr1\t99\t100\t0\t0\t1\t100\t1\t100\t1e-5\t\n",
			ErrMalformedRecord,
			1,
			"bitscore",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), ParseOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error = %T, want *ParseError", err)
			}
			if perr.Row != tt.wantRow {
				t.Errorf("ParseError.Row = %d, want %d", perr.Row, tt.wantRow)
			}
			if perr.Column != tt.wantCol {
				t.Errorf("ParseError.Column = %q, want %q", perr.Column, tt.wantCol)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempBlastOut.txt")
	if err := os.WriteFile(path, []byte(testHits), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := ParseFile(path, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Subjects(); !reflect.DeepEqual(got, []string{"scaffold_1", "scaffold_2"}) {
		t.Errorf("Subjects() = %v", got)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"), ParseOptions{}); !os.IsNotExist(err) {
		t.Errorf("ParseFile() error = %v, want not exist", err)
	}
}
