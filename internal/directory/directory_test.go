package directory

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var t0 = time.Unix(1000, 0)

func TestRegister_NameValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{"simple", "alice", "alice", false},
		{"trimmed", "  bob  ", "bob", false},
		{"max length", strings.Repeat("x", 20), strings.Repeat("x", 20), false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"too long", strings.Repeat("x", 21), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			u, err := d.Register("id1", tt.input, t0)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Fatalf("Register(%q) err = %v, want ErrInvalidName", tt.input, err)
				}
				if d.Len() != 0 {
					t.Error("failed registration must not insert a user")
				}
				return
			}
			if err != nil {
				t.Fatalf("Register(%q) unexpected error: %v", tt.input, err)
			}
			if u.DisplayName != tt.wantName {
				t.Errorf("DisplayName = %q, want %q", u.DisplayName, tt.wantName)
			}
			if u.Paired() {
				t.Error("new user must start without a partner")
			}
		})
	}
}

func TestRegister_ExistingIDUpdatesName(t *testing.T) {
	d := New()
	u1, _ := d.Register("id1", "alice", t0)
	u2, err := d.Register("id1", "alicia", t0.Add(time.Second))
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if u1 != u2 {
		t.Error("re-registering should update the existing record")
	}
	if u2.DisplayName != "alicia" {
		t.Errorf("DisplayName = %q, want %q", u2.DisplayName, "alicia")
	}
	if !u2.JoinedAt.Equal(t0) {
		t.Error("JoinedAt should be preserved on re-register")
	}
}

func TestTouch_Monotonic(t *testing.T) {
	d := New()
	d.Register("id1", "alice", t0)

	d.Touch("id1", t0.Add(time.Minute))
	if got := d.Lookup("id1").LastActiveAt; !got.Equal(t0.Add(time.Minute)) {
		t.Errorf("LastActiveAt = %v, want %v", got, t0.Add(time.Minute))
	}

	// A timestamp in the past must not move LastActiveAt backward.
	d.Touch("id1", t0)
	if got := d.Lookup("id1").LastActiveAt; !got.Equal(t0.Add(time.Minute)) {
		t.Errorf("LastActiveAt moved backward to %v", got)
	}
}

func TestRemove(t *testing.T) {
	d := New()
	d.Register("id1", "alice", t0)

	if !d.Remove("id1") {
		t.Error("remove of registered user should succeed")
	}
	if d.Remove("id1") {
		t.Error("second remove should report not found")
	}
	if d.Lookup("id1") != nil {
		t.Error("removed user should not resolve")
	}
}

func TestCounts(t *testing.T) {
	d := New()
	a, _ := d.Register("a", "alice", t0)
	b, _ := d.Register("b", "bob", t0)
	d.Register("c", "carol", t0)

	a.PartnerID = "b"
	b.PartnerID = "a"

	c := d.Counts()
	if c.Online != 3 {
		t.Errorf("Online = %d, want 3", c.Online)
	}
	if c.Waiting != 1 {
		t.Errorf("Waiting = %d, want 1", c.Waiting)
	}
	if c.Chatting != 1 {
		t.Errorf("Chatting = %d, want 1 (one chat, not two participants)", c.Chatting)
	}
}

func TestIdleSince(t *testing.T) {
	d := New()
	d.Register("old", "alice", t0)
	d.Register("fresh", "bob", t0)
	d.Touch("fresh", t0.Add(10*time.Minute))

	ids := d.IdleSince(t0.Add(5 * time.Minute))
	if len(ids) != 1 || ids[0] != "old" {
		t.Errorf("IdleSince = %v, want [old]", ids)
	}
}
