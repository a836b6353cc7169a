package mesh

// Tags is an opaque set of small integer tag bits reserved for outer
// algorithms (for example marking faces during Boolean evaluation).
// The core never interprets tag contents; it only guarantees they are
// empty on construction and survive Clone.
type Tags uint32

// Set marks bit n.
func (t *Tags) Set(n uint) { *t |= 1 << n }

// Clear removes bit n.
func (t *Tags) Clear(n uint) { *t &^= 1 << n }

// Has reports whether bit n is marked.
func (t Tags) Has(n uint) bool { return t&(1<<n) != 0 }

// Empty reports whether no bits are marked.
func (t Tags) Empty() bool { return t == 0 }

// Reset clears all bits.
func (t *Tags) Reset() { *t = 0 }
