package diskann


// OrdinalMapping is a total, injective function from source graph ids onto
// dense ordinals [0, N). It is a plain map rather than an array because
// the source id space is not guaranteed contiguous (tombstoned ids are
// dropped from it entirely).
type OrdinalMapping map[int]int

// SequentialRenumbering scans ids in [0, g.IDUpperBound()) in order and
// assigns each live (non-tombstoned) id the next dense ordinal, so the
// result is monotonic: i<j and both live implies mapping[i] < mapping[j].
func SequentialRenumbering(g Graph) OrdinalMapping {
	mapping := make(OrdinalMapping)
	next := 0
	for id := 0; id < g.IDUpperBound(); id++ {
		if g.Tombstoned(id) {
			continue
		}
		mapping[id] = next
		next++
	}
	return mapping
}

// validateMapping checks that mapping is a total bijection onto [0, N)
// for the given N, and that no id it maps is tombstoned in g.
func validateMapping(mapping OrdinalMapping, g Graph) error {
	n := len(mapping)
	seen := make([]bool, n)
	for origID, ord := range mapping {
		if ord < 0 || ord >= n {
			return &PreconditionViolation{Msg: "mapping value out of range [0,N)"}
		}
		if seen[ord] {
			return &PreconditionViolation{Msg: "mapping is not injective"}
		}
		seen[ord] = true
		if g.Tombstoned(origID) {
			return &PreconditionViolation{Msg: "mapping references a tombstoned node; run cleanup before writing"}
		}
	}
	for _, ok := range seen {
		if !ok {
			return &PreconditionViolation{Msg: "mapping does not cover [0,N)"}
		}
	}
	return nil
}

// invert returns the new-ordinal-indexed array of original ids, i.e.
// inverted[k] is the source id mapped to dense ordinal k. Used by the
// Writer to walk records in on-disk order.
func invert(mapping OrdinalMapping) []int {
	inverted := make([]int, len(mapping))
	for origID, ord := range mapping {
		inverted[ord] = origID
	}
	return inverted
}

// renumberNeighbors maps a node's original-space neighbor list through
// mapping, dropping any neighbor not present in it (e.g. a tombstoned
// node excluded from the mapping), in the order Graph.Neighbors returned
// them. For an HNSW/DiskANN-style graph that order is normally
// closest-first, and spec.md's round-trip property requires it survive
// the write/load cycle, so this must not reorder the list. It returns two
// parallel slices: the surviving original ids (needed by feature codecs
// that key off original id, such as FUSED_ADC) and their renumbered
// ordinals (what is actually written to the neighbor list).
func renumberNeighbors(mapping OrdinalMapping, origNeighbors []int) (origFiltered, renumbered []int) {
	origFiltered = make([]int, 0, len(origNeighbors))
	renumbered = make([]int, 0, len(origNeighbors))
	for _, orig := range origNeighbors {
		if ord, ok := mapping[orig]; ok {
			origFiltered = append(origFiltered, orig)
			renumbered = append(renumbered, ord)
		}
	}
	return origFiltered, renumbered
}
