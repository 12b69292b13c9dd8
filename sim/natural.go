package sim

import (
	"strconv"
)

// byNaturalOrder sorts strings the way the reference simulator orders pin
// names: plain lexical comparison except that each run of digits is
// compared numerically, so "input_2" sorts before "input_10".
type byNaturalOrder []string

func (n byNaturalOrder) Len() int      { return len(n) }
func (n byNaturalOrder) Swap(i, j int) { n[i], n[j] = n[j], n[i] }
func (n byNaturalOrder) Less(i, j int) bool {
	return naturalLess(n[i], n[j])
}

func naturalLess(a, b string) bool {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ac, bc := a[ai], b[bi]
		if isDigit(ac) && isDigit(bc) {
			as, ae := ai, ai
			for ae < len(a) && isDigit(a[ae]) {
				ae++
			}
			bs, be := bi, bi
			for be < len(b) && isDigit(b[be]) {
				be++
			}
			an, _ := strconv.Atoi(a[as:ae])
			bn, _ := strconv.Atoi(b[bs:be])
			if an != bn {
				return an < bn
			}
			ai, bi = ae, be
			continue
		}
		if ac != bc {
			return ac < bc
		}
		ai++
		bi++
	}
	return len(a)-ai < len(b)-bi
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
