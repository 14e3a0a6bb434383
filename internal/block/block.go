// Package block tracks which users must never be matched together again.
// Blocks are directional (A blocking B does not block B from A's perspective)
// and live only as long as the blocking user's connection. Access is
// serialized by the session manager.
package block

// List maps a user id to the set of ids that user has blocked.
type List struct {
	blocked map[string]map[string]struct{}
}

// New creates an empty block list.
func New() *List {
	return &List{blocked: make(map[string]map[string]struct{})}
}

// Add records that blocker has blocked target.
func (l *List) Add(blocker, target string) {
	set, ok := l.blocked[blocker]
	if !ok {
		set = make(map[string]struct{})
		l.blocked[blocker] = set
	}
	set[target] = struct{}{}
}

// Blocked reports whether blocker has blocked target.
func (l *List) Blocked(blocker, target string) bool {
	_, ok := l.blocked[blocker][target]
	return ok
}

// Either reports whether a blocks b or b blocks a. This is the predicate the
// matcher uses: a pairing is suppressed if a block exists in either direction.
func (l *List) Either(a, b string) bool {
	return l.Blocked(a, b) || l.Blocked(b, a)
}

// RemoveUser drops the user's own block set. Entries naming this user inside
// other users' sets are left inert; they refer to a connection id that is
// never reused within the process lifetime.
func (l *List) RemoveUser(id string) {
	delete(l.blocked, id)
}
