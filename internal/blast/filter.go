package blast

import (
	"sort"
)

// Table is an ordered list of hits. Until it's sorted, the order is
// that of the BLAST output it was read from.
//
// Filtering methods return new Tables and leave the receiver alone. The
// sort methods reorder the receiver in place.
type Table []Hit

// pair identifies a family and the genome sequence it was found on.
type pair struct {
	query, subject string
}

// SortByPosition sorts the hits by their subject start, ascending.
// Hits with the same start keep their relative order.
func (t Table) SortByPosition() {
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].SubjectStart < t[j].SubjectStart
	})
}

// SortByEValue sorts the hits by expect value, best (lowest) first.
// Hits with the same e-value keep their relative order.
func (t Table) SortByEValue() {
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].EValue < t[j].EValue
	})
}

// FilterPair returns the hits of query on subject.
func (t Table) FilterPair(query, subject string) Table {
	var filtered Table
	for _, h := range t {
		if h.Query == query && h.Subject == subject {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

// FilterQuery returns the hits of query.
func (t Table) FilterQuery(query string) Table {
	var filtered Table
	for _, h := range t {
		if h.Query == query {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

// Top returns (a copy of) the first n hits, or all of them if there are
// fewer than n.
func (t Table) Top(n int) Table {
	if n < 0 {
		n = 0
	}
	if n > len(t) {
		n = len(t)
	}
	return append(Table(nil), t[:n]...)
}

// UniquePairs keeps the first hit of each (query, subject) pair. After
// SortByEValue that's the best hit of each pair.
func (t Table) UniquePairs() Table {
	seen := make(map[pair]struct{}, len(t))

	var unique Table
	for _, h := range t {
		p := pair{h.Query, h.Subject}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, h)
	}
	return unique
}

// Queries returns the distinct query (family) ids in order of first
// appearance.
func (t Table) Queries() []string {
	return distinct(t, func(h Hit) string { return h.Query })
}

// Subjects returns the distinct subject ids in order of first appearance.
func (t Table) Subjects() []string {
	return distinct(t, func(h Hit) string { return h.Subject })
}

func distinct(t Table, key func(Hit) string) []string {
	seen := make(map[string]struct{})

	var keys []string
	for _, h := range t {
		k := key(h)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
