package identity

// Index deduplicates candidates within one extraction run. Every key of a
// stored candidate points at the same entry, so a later row that shares any
// key with an earlier one is folded into it.
type Index struct {
	entries map[MatchKey]*Candidate
	order   []*Candidate
	merges  int
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[MatchKey]*Candidate)}
}

// Add stores c or folds it into an existing entry. It returns the entry that
// now represents the person and whether c was merged into an earlier one.
// Candidates without any key are stored as-is and never merged.
func (ix *Index) Add(c Candidate) (*Candidate, bool) {
	keys := KeysFor(c)
	for _, key := range keys {
		if existing, ok := ix.entries[key]; ok {
			existing.Fill(c)
			ix.register(existing)
			ix.merges++
			return existing, true
		}
	}
	entry := &c
	ix.order = append(ix.order, entry)
	ix.register(entry)
	return entry, false
}

func (ix *Index) register(c *Candidate) {
	for _, key := range KeysFor(*c) {
		if _, taken := ix.entries[key]; !taken {
			ix.entries[key] = c
		}
	}
}

// Lookup returns the entry stored under key.
func (ix *Index) Lookup(key MatchKey) (*Candidate, bool) {
	c, ok := ix.entries[key]
	return c, ok
}

// Candidates returns the distinct entries in insertion order.
func (ix *Index) Candidates() []*Candidate {
	out := make([]*Candidate, len(ix.order))
	copy(out, ix.order)
	return out
}

// Len returns the number of distinct entries.
func (ix *Index) Len() int { return len(ix.order) }

// Merges returns how many Add calls folded into an existing entry.
func (ix *Index) Merges() int { return ix.merges }
