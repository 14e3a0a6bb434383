// Package directory owns the registry of connected users. A User exists from
// a successful queue join until connection teardown; its fields are mutated
// only by the session manager, which serializes all access. The Directory
// itself carries no lock for that reason.
package directory

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDisplayNameChars is the maximum display name length in characters.
const MaxDisplayNameChars = 20

// ErrInvalidName is returned when a display name is empty after trimming or
// exceeds MaxDisplayNameChars.
var ErrInvalidName = errors.New("directory: invalid display name")

// User is the per-connection record for a joined user. PartnerID is either
// empty or refers to a live user whose own PartnerID points back here.
type User struct {
	ID           string
	DisplayName  string
	JoinedAt     time.Time
	LastActiveAt time.Time
	PartnerID    string
}

// Paired reports whether the user currently has a chat partner.
func (u *User) Paired() bool {
	return u.PartnerID != ""
}

// Counts is the aggregate user breakdown broadcast to clients. Chatting
// counts chats, not participants.
type Counts struct {
	Online   int
	Waiting  int
	Chatting int
}

// Directory maps connection ids to their User records.
type Directory struct {
	users map[string]*User
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{users: make(map[string]*User)}
}

// Register validates the display name and inserts a User for the given
// connection id with no partner. Re-registering an existing id updates the
// display name in place and keeps the original JoinedAt.
func (d *Directory) Register(id, displayName string, now time.Time) (*User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameChars {
		return nil, ErrInvalidName
	}

	if u, ok := d.users[id]; ok {
		u.DisplayName = name
		u.LastActiveAt = now
		return u, nil
	}

	u := &User{
		ID:           id,
		DisplayName:  name,
		JoinedAt:     now,
		LastActiveAt: now,
	}
	d.users[id] = u
	return u, nil
}

// Lookup returns the User for the given id, or nil if not registered.
func (d *Directory) Lookup(id string) *User {
	return d.users[id]
}

// Remove deletes the User record. The caller is responsible for having
// already unwound any active pairing. Returns false if the id was unknown.
func (d *Directory) Remove(id string) bool {
	if _, ok := d.users[id]; !ok {
		return false
	}
	delete(d.users, id)
	return true
}

// Touch advances the user's LastActiveAt. The timestamp never moves backward.
func (d *Directory) Touch(id string, now time.Time) {
	if u, ok := d.users[id]; ok && now.After(u.LastActiveAt) {
		u.LastActiveAt = now
	}
}

// Len returns the number of registered users.
func (d *Directory) Len() int {
	return len(d.users)
}

// Counts recomputes the aggregate breakdown from scratch. Each active chat is
// counted once despite having two participants.
func (d *Directory) Counts() Counts {
	c := Counts{Online: len(d.users)}
	paired := 0
	for _, u := range d.users {
		if u.Paired() {
			paired++
		} else {
			c.Waiting++
		}
	}
	c.Chatting = paired / 2
	return c
}

// All returns a snapshot of every registered User.
func (d *Directory) All() []*User {
	out := make([]*User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	return out
}

// IdleSince returns the ids of all users whose last activity is strictly
// before the cutoff.
func (d *Directory) IdleSince(cutoff time.Time) []string {
	var ids []string
	for id, u := range d.users {
		if u.LastActiveAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
