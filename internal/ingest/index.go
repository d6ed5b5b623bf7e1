package ingest

// DuplicateIndex is the in-memory set of external ids known for one job. It
// is seeded once from a bulk fetch of the durable store and then mutated as
// rows validate, so existence checks are O(1) instead of one store round trip
// per row. The index is local to a single job and must only be touched from
// that job's processing sequence.
type DuplicateIndex struct {
	ids map[string]struct{}
}

func NewDuplicateIndex(seed []string) *DuplicateIndex {
	ids := make(map[string]struct{}, len(seed))
	for _, id := range seed {
		ids[id] = struct{}{}
	}
	return &DuplicateIndex{ids: ids}
}

func (d *DuplicateIndex) Contains(id string) bool {
	_, found := d.ids[id]
	return found
}

func (d *DuplicateIndex) Add(id string) {
	d.ids[id] = struct{}{}
}

func (d *DuplicateIndex) Len() int {
	return len(d.ids)
}
