// Package matching implements the waiting queue and the pairing pass. The
// queue holds ids of unpaired users in FIFO order; a user with a partner is
// never enqueued. Access is serialized by the session manager.
package matching

// Pair is a committed pairing between two distinct queued users.
type Pair struct {
	A, B string
}

// Queue is an ordered sequence of user ids, each appearing at most once.
type Queue struct {
	order   []string
	members map[string]struct{}
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{members: make(map[string]struct{})}
}

// Enqueue appends the id to the tail. Returns false without modifying the
// queue if the id is already present.
func (q *Queue) Enqueue(id string) bool {
	if _, ok := q.members[id]; ok {
		return false
	}
	q.order = append(q.order, id)
	q.members[id] = struct{}{}
	return true
}

// Remove deletes the id from the queue, preserving the order of the rest.
// Returns false if the id was not queued.
func (q *Queue) Remove(id string) bool {
	if _, ok := q.members[id]; !ok {
		return false
	}
	delete(q.members, id)
	for i, qid := range q.order {
		if qid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether the id is currently queued.
func (q *Queue) Contains(id string) bool {
	_, ok := q.members[id]
	return ok
}

// Len returns the number of queued ids.
func (q *Queue) Len() int {
	return len(q.order)
}

// IDs returns a snapshot of the queue in FIFO order.
func (q *Queue) IDs() []string {
	out := make([]string, len(q.order))
	copy(out, q.order)
	return out
}

// popFront removes and returns the oldest id. Callers must check Len first.
func (q *Queue) popFront() string {
	id := q.order[0]
	q.order = q.order[1:]
	delete(q.members, id)
	return id
}

// pushFront re-inserts an id at the head, restoring its position after a
// speculative pop.
func (q *Queue) pushFront(id string) {
	q.order = append([]string{id}, q.order...)
	q.members[id] = struct{}{}
}

// Match runs one synchronous pairing pass and returns the committed pairs in
// order. live reports whether an id still resolves to a connected user;
// blocked reports whether a block exists between two ids in either direction.
//
// While at least two ids remain, the two oldest are taken. An id that is no
// longer live is dropped outright, never re-inserted. If the two candidates
// block each other, both are re-appended to the tail preserving their
// relative order and the pass stops: with only two mutually-blocked users in
// the queue, retrying within the same pass would loop forever. A committed
// pair may unblock further matches, so the pass continues after a success.
func (q *Queue) Match(live func(id string) bool, blocked func(a, b string) bool) []Pair {
	var pairs []Pair

	for len(q.order) >= 2 {
		a := q.popFront()
		if !live(a) {
			continue
		}

		b := q.popFront()
		if !live(b) {
			q.pushFront(a)
			continue
		}

		if blocked(a, b) {
			// Defer the pair to the tail and stop this pass.
			q.Enqueue(a)
			q.Enqueue(b)
			break
		}

		pairs = append(pairs, Pair{A: a, B: b})
	}

	return pairs
}
