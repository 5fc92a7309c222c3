// Package acquire - ordered candidate set with deduplication.
// Keeps the first-seen order of video URLs found on a page so higher
// priority sources are tried first.
package acquire

// Candidates is an insertion-ordered set of URLs. Two URLs are the same
// candidate when their NormalizeURL keys match; the first spelling seen is
// the one kept, since servers may treat a trailing slash as significant.
type Candidates struct {
	items []string
	seen  map[string]bool
	idx   int // current read position
}

// NewCandidates creates an empty set.
func NewCandidates() *Candidates {
	return &Candidates{
		seen: make(map[string]bool),
	}
}

// Add appends rawURL unchanged unless an equivalent URL was added before.
func (c *Candidates) Add(rawURL string) {
	key := NormalizeURL(rawURL)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.items = append(c.items, rawURL)
}

// HasNext returns true if there are untried URLs.
func (c *Candidates) HasNext() bool {
	return c.idx < len(c.items)
}

// Next returns the next untried URL and advances the pointer.
func (c *Candidates) Next() string {
	u := c.items[c.idx]
	c.idx++
	return u
}

// Len returns the number of unique URLs collected.
func (c *Candidates) Len() int {
	return len(c.items)
}

// All returns every collected URL in priority order.
func (c *Candidates) All() []string {
	return c.items
}
