package kinds

const (
	length   = 64
	idLength = 8
	depthMax = length / idLength
	idMask   = (1 << idLength) - 1
)

// Bases returns the "base" IDs at each level
// (beyond the first) by shifting and masking.
func Bases(t uint64) [depthMax]uint64 {
	var bases [depthMax]uint64
	for i := 1; i < depthMax; i++ {
		bases[i-1] = (t >> (idLength * i)) & idMask
	}
	return bases
}

func Kind(id uint64, bases ...uint64) uint64 {
	id = id & idMask
	ids := make(map[uint64]struct{})

	for _, base := range bases {
		for j := 0; j < depthMax; j++ {
			baseId := (base >> (idLength * j)) & idMask
			if baseId == 0 {
				break
			}
			if _, ok := ids[baseId]; !ok {
				ids[baseId] = struct{}{}
				id |= baseId << (idLength * len(ids))
			}
		}
	}
	return id
}

// IsKind checks if 'kind' matches any of the bases provided.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		baseId := base & idMask
		if kind == baseId {
			return true
		}
		for i := 0; i < depthMax; i++ {
			currentId := (kind >> (idLength * i)) & idMask
			if currentId == baseId {
				return true
			}
		}
	}
	return false
}

var (
	Null    = Kind(0)
	Element = Kind(1)

	Vertex   = Kind(2, Element)
	State    = Kind(3, Vertex)
	Simple   = Kind(4, State)
	Compound = Kind(5, State)
	Parallel = Kind(6, Compound)
	Final    = Kind(7, State)

	Pseudostate    = Kind(8, Vertex)
	History        = Kind(9, Pseudostate)
	ShallowHistory = Kind(10, History)
	DeepHistory    = Kind(11, History)

	Transition = Kind(12, Element)
	Guard      = Kind(13, Element)
	Action     = Kind(14, Element)
	Event      = Kind(15, Element)
	Machine    = Kind(16, Element)
)
