package blast

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrTruncatedRow is a row with fewer than the twelve expected columns.
	ErrTruncatedRow = errors.New("truncated row")

	// ErrMalformedRecord is a row with a numeric column that doesn't parse.
	ErrMalformedRecord = errors.New("malformed record")
)

// Columns is the blastn -outfmt 6 field list that Parse reads.
var Columns = []string{
	"qseqid", "sseqid", "pident", "length", "mismatch", "gapopen",
	"qstart", "qend", "sstart", "send", "evalue", "bitscore",
}

// OutFmt is the -outfmt argument that makes blastn write Columns.
var OutFmt = "6 " + strings.Join(Columns, " ")

// Hit is one row of tabular blastn output: an alignment of a repeat
// family (the query) against a genome sequence (the subject).
//
// Coordinates are 1-based and inclusive. Start is not necessarily less
// than end: blastn reports minus strand subject matches with
// SubjectStart > SubjectEnd.
type Hit struct {
	// Query is the repeat family id
	Query string

	// Subject is the genome sequence (contig/scaffold) id
	Subject string

	// Identity is the percentage of identical matches
	Identity float64

	// Length of the alignment
	Length uint64

	// Mismatches in the alignment
	Mismatches uint64

	// GapOpens is the number of gap openings
	GapOpens uint64

	QueryStart   uint64
	QueryEnd     uint64
	SubjectStart uint64
	SubjectEnd   uint64

	// EValue is the expect value
	EValue float64

	// BitScore of the alignment
	BitScore float64
}

// Forward reports whether the hit is on the subject's plus strand.
func (h Hit) Forward() bool {
	return h.SubjectEnd > h.SubjectStart
}

// Low is the smaller of the two subject coordinates.
func (h Hit) Low() uint64 {
	if h.SubjectStart < h.SubjectEnd {
		return h.SubjectStart
	}
	return h.SubjectEnd
}

// High is the larger of the two subject coordinates.
func (h Hit) High() uint64 {
	if h.SubjectStart > h.SubjectEnd {
		return h.SubjectStart
	}
	return h.SubjectEnd
}

// Fields renders the hit back into its twelve tab-separated columns.
func (h Hit) Fields() []string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	return []string{
		h.Query, h.Subject, f(h.Identity), u(h.Length), u(h.Mismatches), u(h.GapOpens),
		u(h.QueryStart), u(h.QueryEnd), u(h.SubjectStart), u(h.SubjectEnd), f(h.EValue), f(h.BitScore),
	}
}

// String is the hit as a row of tabular output.
func (h Hit) String() string {
	return strings.Join(h.Fields(), "\t")
}

// ParseError is a row of tabular output that couldn't be read.
type ParseError struct {
	// Row is the 1-based line number in the input
	Row int

	// Column is the name of the offending column, empty for truncated rows
	Column string

	// Err is ErrTruncatedRow or ErrMalformedRecord
	Err error

	// Cause is the underlying strconv error, if any
	Cause error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: %v: column %s: %v", e.Row, e.Err, e.Column, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseOptions tune Parse.
type ParseOptions struct {
	// Header is true if the first data row holds column names
	Header bool
}

// ParseFile reads a tabular blastn output file.
func ParseFile(path string, opts ParseOptions) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse BLAST output %s: %w", path, err)
	}
	return t, nil
}

// Parse reads tabular blastn output into a Table, in input order.
//
// Blank lines and comment lines (starting with #, as in -outfmt 7) are
// skipped. The first row that can't be read stops the parse.
func Parse(r io.Reader, opts ParseOptions) (Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var t Table
	headerSkipped := !opts.Header
	for row := 1; sc.Scan(); row++ {
		line := strings.TrimRight(sc.Text(), "\r")

		// comment lines start with a #
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !headerSkipped {
			headerSkipped = true
			continue
		}

		h, err := parseRow(strings.Split(line, "\t"))
		if err != nil {
			err.Row = row
			return nil, err
		}
		t = append(t, h)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return t, nil
}

// parseRow turns the columns of a row into a Hit.
func parseRow(cols []string) (Hit, *ParseError) {
	if len(cols) < len(Columns) {
		return Hit{}, &ParseError{Err: ErrTruncatedRow}
	}

	var perr *ParseError
	u := func(i int) uint64 {
		if perr != nil {
			return 0
		}
		v, err := strconv.ParseUint(strings.TrimSpace(cols[i]), 10, 64)
		if err != nil {
			perr = &ParseError{Column: Columns[i], Err: ErrMalformedRecord, Cause: err}
		}
		return v
	}
	f := func(i int) float64 {
		if perr != nil {
			return 0
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[i]), 64)
		if err != nil {
			perr = &ParseError{Column: Columns[i], Err: ErrMalformedRecord, Cause: err}
		}
		return v
	}

	h := Hit{
		Query:        cols[0],
		Subject:      cols[1],
		Identity:     f(2),
		Length:       u(3),
		Mismatches:   u(4),
		GapOpens:     u(5),
		QueryStart:   u(6),
		QueryEnd:     u(7),
		SubjectStart: u(8),
		SubjectEnd:   u(9),
		EValue:       f(10),
		BitScore:     f(11),
	}
	if perr != nil {
		return Hit{}, perr
	}

	return h, nil
}
