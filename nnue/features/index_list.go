package features

// MaxIndices bounds the number of feature indices a single position or
// move diff can produce across all feature sets of one composite.
const MaxIndices = 96

// IndexList is a fixed-capacity list of feature indices. It is reused
// across calls to avoid per-node allocation.
type IndexList struct {
	values [MaxIndices]uint32
	size   int
}

func (l *IndexList) Add(index uint32) {
	l.values[l.size] = index
	l.size++
}

func (l *IndexList) Len() int { return l.size }

func (l *IndexList) At(i int) uint32 { return l.values[i] }

// Values returns the live indices. The slice aliases the list's backing
// array and is invalidated by Clear.
func (l *IndexList) Values() []uint32 { return l.values[:l.size] }

func (l *IndexList) Clear() { l.size = 0 }
