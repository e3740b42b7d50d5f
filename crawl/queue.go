package crawl

// Queue is a breadth-first queue that admits each reference once and at
// most limit references in total.
type Queue struct {
	items []string
	seen  map[string]bool
	idx   int
	limit int
}

func NewQueue(limit int) *Queue {
	return &Queue{seen: make(map[string]bool), limit: limit}
}

// Add enqueues ref and reports whether it was new and within the limit.
func (q *Queue) Add(ref string) bool {
	if q.seen[ref] || len(q.items) >= q.limit {
		return false
	}
	q.seen[ref] = true
	q.items = append(q.items, ref)
	return true
}

func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed reference and advances the pointer.
func (q *Queue) Next() string {
	ref := q.items[q.idx]
	q.idx++
	return ref
}

// All returns every admitted reference in insertion order.
func (q *Queue) All() []string {
	return q.items
}
