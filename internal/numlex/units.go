package numlex

// unitTrieNode is a byte-keyed trie node used for longest-match lookup
// of unit names, independent of metric prefixes.
type unitTrieNode struct {
	children map[byte]*unitTrieNode
	isEnd    bool
	name     string
}

func newUnitTrie(names []string) *unitTrieNode {
	root := &unitTrieNode{children: make(map[byte]*unitTrieNode)}
	for _, name := range names {
		root.insert(name)
	}
	return root
}

func (n *unitTrieNode) insert(name string) {
	cur := n
	for i := 0; i < len(name); i++ {
		b := name[i]
		next, ok := cur.children[b]
		if !ok {
			next = &unitTrieNode{children: make(map[byte]*unitTrieNode)}
			cur.children[b] = next
		}
		cur = next
	}
	cur.isEnd = true
	cur.name = name
}

// longestMatch walks s from the start, returning the longest registered
// name that is a prefix of s, if any.
func (n *unitTrieNode) longestMatch(s string) (name string, length int, ok bool) {
	cur := n
	bestLen := 0
	bestName := ""
	for i := 0; i < len(s); i++ {
		next, has := cur.children[s[i]]
		if !has {
			break
		}
		cur = next
		if cur.isEnd {
			bestLen = i + 1
			bestName = cur.name
		}
	}
	if bestLen == 0 {
		return "", 0, false
	}
	return bestName, bestLen, true
}

// ratio units carry a conversion into a linear scalar via EngrNum.X().
var ratioUnits = newUnitTrie([]string{"dB", "%", "X"})

// generic units are recognized for grammar completeness (so a unit
// suffix doesn't get mis-lexed as trailing garbage) but carry no
// conversion of their own; EngrNum.X() returns the bare engineering
// value for them.
var genericUnits = newUnitTrie([]string{
	"s", "Hz", "V", "A", "W", "F", "H", "g", "m", "Pa", "ohm", "B",
})

const metricPrefixChars = "fpnumkMGTP"

var metricPrefixExp = map[byte]int{
	'f': -15, 'p': -12, 'n': -9, 'u': -6, 'm': -3,
	'k': 3, 'M': 6, 'G': 9, 'T': 12, 'P': 15,
}

func isMetricPrefixChar(b byte) bool {
	_, ok := metricPrefixExp[b]
	return ok
}

// scanUnit matches a unit suffix at byte offset pos in s per the
// grammar `unit := ratio_unit | metric_prefix? generic_unit`, trying
// the ratio-unit alternative first, then a (possibly prefixed) generic
// unit, preferring the longer of prefixed-vs-bare generic matches. It
// returns the offset just past the consumed unit text (== pos if none
// matched) and records what it found into t.
func scanUnit(s string, pos int, t *LexiNumberTraits) int {
	if pos >= len(s) {
		return pos
	}

	if _, rlen, ok := ratioUnits.longestMatch(s[pos:]); ok {
		t.RatioUnitStart = pos
		return pos + rlen
	}

	_, glen, gok := genericUnits.longestMatch(s[pos:])

	var plen int
	var pok bool
	if isMetricPrefixChar(s[pos]) && pos+1 < len(s) {
		_, plen, pok = genericUnits.longestMatch(s[pos+1:])
	}

	if pok && plen+1 > glen {
		t.MetricPrefixChar = pos
		t.GenericUnitStart = pos + 1
		return pos + 1 + plen
	}
	if gok {
		t.GenericUnitStart = pos
		return pos + glen
	}
	return pos
}
