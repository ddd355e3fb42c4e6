// Package locus groups a repeat family's BLAST hits on a genome sequence
// into loci: candidate copies of the repeat with an inferred strand.
//
// Clustering is a greedy, single pass 1-D merge with a gap tolerance.
// Hits up to MaxHitDistance apart are fused even when they don't
// overlap, so a fragmented alignment to one copy of a repeat becomes
// one locus.
package locus

import (
	"fmt"

	"github.com/ARU-life-sciences/rep/internal/blast"
	"github.com/biogo/biogo/seq"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("locus")

const (
	// DefaultMaxHitDistance is the widest gap, in bases, bridged between hits.
	DefaultMaxHitDistance = 10000

	// DefaultMinFraction is the strand majority below which a locus'
	// orientation is ambiguous.
	DefaultMinFraction = 0.8
)

// Params tune Cluster.
type Params struct {
	// MaxHitDistance: a hit starting less than this many bases past the
	// current locus' end is merged into it
	MaxHitDistance uint64

	// MinFraction is the share of hits that must agree on a strand
	MinFraction float64
}

// DefaultParams are the clustering defaults.
func DefaultParams() Params {
	return Params{
		MaxHitDistance: DefaultMaxHitDistance,
		MinFraction:    DefaultMinFraction,
	}
}

// Locus is a cluster of hits on one subject sequence.
type Locus struct {
	// Subject is the genome sequence the locus is on
	Subject string

	// Start and Stop are 1-based, inclusive, Start <= Stop
	Start uint64
	Stop  uint64

	// Strand is seq.Plus or seq.Minus, by majority vote of the hits
	Strand seq.Strand

	// Plus and Minus count the hits on either strand
	Plus  int
	Minus int
}

// Hits is the number of hits merged into the locus.
func (l Locus) Hits() int {
	return l.Plus + l.Minus
}

// Len is the number of bases the locus spans.
func (l Locus) Len() uint64 {
	return l.Stop - l.Start + 1
}

// Fraction is the share of hits on the winning strand.
func (l Locus) Fraction() float64 {
	if l.Hits() == 0 {
		return 0
	}
	major := l.Plus
	if l.Minus > major {
		major = l.Minus
	}
	return float64(major) / float64(l.Hits())
}

// Ambiguous reports whether fewer than minFraction of the hits agree on
// the strand.
func (l Locus) Ambiguous(minFraction float64) bool {
	return l.Fraction() < minFraction
}

// Tie reports whether the strand vote was split evenly. Ties are
// resolved to the plus strand.
func (l Locus) Tie() bool {
	return l.Plus == l.Minus
}

func (l Locus) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", l.Subject, l.Start, l.Stop, Symbol(l.Strand))
}

// Symbol is the one character form of a strand: +, - or . when unknown.
func Symbol(s seq.Strand) string {
	switch s {
	case seq.Plus:
		return "+"
	case seq.Minus:
		return "-"
	default:
		return "."
	}
}

// Cluster merges hits into loci. The hits must be of one family on one
// subject, sorted by subject start (blast.Table.SortByPosition).
//
// A hit is merged into the open locus when the gap between the locus'
// end and the hit's lower coordinate is less than p.MaxHitDistance;
// overlapping hits always merge. Otherwise the open locus is emitted and
// the hit seeds the next one. Loci whose strand vote falls below
// p.MinFraction are logged as ambiguous but still oriented by majority.
func Cluster(hits blast.Table, p Params) []Locus {
	if len(hits) == 0 {
		return nil
	}

	var (
		loci []Locus
		cur  Locus
	)

	seed := func(h blast.Hit) {
		cur = Locus{Subject: h.Subject, Start: h.Low(), Stop: h.High()}
		tally(&cur, h)
	}

	for i, h := range hits {
		if i == 0 {
			seed(h)
			continue
		}

		// signed, hits that start inside the locus have a negative gap
		gap := int64(h.Low()) - int64(cur.Stop)
		if gap < int64(p.MaxHitDistance) {
			if h.Low() < cur.Start {
				cur.Start = h.Low()
			}
			if h.High() > cur.Stop {
				cur.Stop = h.High()
			}
			tally(&cur, h)
			continue
		}

		loci = append(loci, closeLocus(cur, hits[0].Query, p))
		seed(h)
	}

	return append(loci, closeLocus(cur, hits[0].Query, p))
}

// tally counts h toward the strand vote of l.
func tally(l *Locus, h blast.Hit) {
	if h.Forward() {
		l.Plus++
	} else {
		l.Minus++
	}
}

// closeLocus settles the strand of l.
func closeLocus(l Locus, family string, p Params) Locus {
	l.Strand = seq.Plus
	if l.Minus > l.Plus {
		l.Strand = seq.Minus
	}

	if l.Ambiguous(p.MinFraction) {
		log.Warningf("ambiguous orientation for %s on %s (%d+/%d-), using %s",
			family, l, l.Plus, l.Minus, Symbol(l.Strand))
	}

	return l
}
