package block

// List is a LIFO intrusive free list with a maintained count.
//
// Invariant: the list is either empty (head nil) or an acyclic chain whose
// length equals Len(). A block appears on at most one list at a time; callers
// enforce that by construction (a block is pushed only after it leaves the
// caller's hands, popped only once).
//
// List is not safe for concurrent use. Each tier wraps it in its own locking
// discipline: none in the thread cache, per-class mutex in the central cache.
type List struct {
	head Pointer
	n    int
}

// Empty reports whether the list holds no blocks.
func (l *List) Empty() bool { return l.head == nil }

// Len returns the maintained block count.
func (l *List) Len() int { return l.n }

// Push prepends a single block.
func (l *List) Push(p Pointer) {
	SetNext(p, l.head)
	l.head = p
	l.n++
}

// Pop detaches and returns the head block, or nil if the list is empty.
func (l *List) Pop() Pointer {
	p := l.head
	if p == nil {
		return nil
	}
	l.head = Next(p)
	l.n--
	return p
}

// PushAll prepends an entire nil-terminated chain, measuring its length by
// walking it. The measured length is returned. Chains handed across tiers may
// legitimately be shorter than the count the producer aimed for, so the count
// is always measured here rather than trusted.
func (l *List) PushAll(head Pointer) int {
	if head == nil {
		return 0
	}
	tail := head
	n := 1
	for Next(tail) != nil {
		tail = Next(tail)
		n++
	}
	SetNext(tail, l.head)
	l.head = head
	l.n += n
	return n
}

// PopN detaches up to n blocks from the head and returns them as a
// nil-terminated chain along with the number actually detached.
func (l *List) PopN(n int) (Pointer, int) {
	if n <= 0 || l.head == nil {
		return nil, 0
	}
	head := l.head
	p := head
	got := 1
	for got < n && Next(p) != nil {
		p = Next(p)
		got++
	}
	l.head = Next(p)
	SetNext(p, nil)
	l.n -= got
	return head, got
}

// PopAll detaches the whole chain, leaving the list empty.
func (l *List) PopAll() (Pointer, int) {
	head, n := l.head, l.n
	l.head = nil
	l.n = 0
	return head, n
}

// Split walks keep-1 links from the head, keeps that prefix on the list, and
// returns the detached tail chain with its length. At least one block is
// always kept. If the observed chain is shorter than the maintained count the
// actually-found length wins and nothing is detached beyond it; a short chain
// is not a fatal condition here.
func (l *List) Split(keep int) (Pointer, int) {
	if keep < 1 {
		keep = 1
	}
	if l.head == nil || l.n <= keep {
		return nil, 0
	}
	p := l.head
	walked := 1
	for walked < keep && Next(p) != nil {
		p = Next(p)
		walked++
	}
	tail := Next(p)
	if tail == nil {
		l.n = walked
		return nil, 0
	}
	SetNext(p, nil)
	detached := Count(tail)
	l.n = walked
	return tail, detached
}
