package auxindex

// FlagSet is the set of todo IDs flagged for review
type FlagSet struct {
	ids map[string]struct{}
}

// NewFlagSet creates an empty flag set
func NewFlagSet() *FlagSet {
	return &FlagSet{ids: make(map[string]struct{})}
}

// Flag marks id. Flagging twice is a no-op.
func (f *FlagSet) Flag(id string) {
	f.ids[id] = struct{}{}
}

// Unflag clears id. Unflagging an unknown id is a no-op.
func (f *FlagSet) Unflag(id string) {
	delete(f.ids, id)
}

// IsFlagged reports whether id is flagged
func (f *FlagSet) IsFlagged(id string) bool {
	_, ok := f.ids[id]
	return ok
}

// Len returns the number of flagged ids
func (f *FlagSet) Len() int {
	return len(f.ids)
}
