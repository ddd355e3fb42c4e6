package extract

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}

	pairs := []string{"AT", "CG", "RY", "KM", "BV", "DH", "SS", "WW", "NN"}
	for _, p := range pairs {
		a, b := p[0], p[1]
		complement[a], complement[b] = b, a
		complement[a+'a'-'A'], complement[b+'a'-'A'] = b+'a'-'A', a+'a'-'A'
	}
	complement['U'], complement['u'] = 'A', 'a'
}

// RevComp returns the reverse complement of s. IUPAC codes are
// complemented with their case kept; anything else is left as is.
func RevComp(s []byte) []byte {
	n := len(s)
	out := make([]byte, n)
	for i, b := range s {
		out[n-1-i] = complement[b]
	}
	return out
}
