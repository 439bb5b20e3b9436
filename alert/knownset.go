package alert

// KnownSet is the session-scoped memory of order IDs already surfaced to
// the operator. It only grows; the sole way to shrink it is a full Reset
// at session end. Not safe for concurrent use on its own; the Controller
// owns it and serializes all access.
type KnownSet struct {
	ids map[string]struct{}
}

// NewKnownSet creates an empty known set.
func NewKnownSet() *KnownSet {
	return &KnownSet{ids: make(map[string]struct{})}
}

// Add inserts an order ID and reports whether it was previously unknown.
func (s *KnownSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether an order ID has already been surfaced.
func (s *KnownSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of known order IDs.
func (s *KnownSet) Len() int {
	return len(s.ids)
}

// Reset drops all known IDs. Only called on logout/session reset.
func (s *KnownSet) Reset() {
	s.ids = make(map[string]struct{})
}
